package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReleaseNormalizes(t *testing.T) {
	r, err := NewRelease("5.2a1")
	require.NoError(t, err)
	assert.Equal(t, 5, r.Major)
	assert.Equal(t, 2, r.Minor)
	assert.Equal(t, 0, r.Micro)
	assert.Equal(t, "a", r.Status)
	assert.Equal(t, 1, r.Iteration)

	_, err = NewRelease("5.2z1")
	assert.Error(t, err)
}

func TestNormalizeRecomputesAfterVersionChange(t *testing.T) {
	r, err := NewRelease("5.2")
	require.NoError(t, err)
	r.Version = "5.2.1"
	require.NoError(t, r.Normalize())
	assert.Equal(t, 1, r.Micro)
	assert.Equal(t, "f", r.Status)
}

func TestIsPublished(t *testing.T) {
	today := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	past := today.AddDate(0, 0, -1)
	future := today.AddDate(0, 0, 1)

	cases := []struct {
		date     *time.Time
		isActive bool
		want     bool
	}{
		{nil, true, false},
		{nil, false, false},
		{&today, true, true},
		{&today, false, false},
		{&past, true, true},
		{&past, false, false},
		{&future, true, false},
		{&future, false, false},
	}
	for _, c := range cases {
		r, err := NewRelease("1.0")
		require.NoError(t, err)
		r.Date = c.date
		r.IsActive = c.isActive
		assert.Equal(t, c.want, r.IsPublished(today), "date=%v active=%v", c.date, c.isActive)
	}
}

func TestDerivedAccessors(t *testing.T) {
	r, err := NewRelease("5.2.1")
	require.NoError(t, err)
	assert.Equal(t, "5.2", r.FeatureVersion())
	assert.Equal(t, "5.x", r.Series())
	assert.Equal(t, "stable/5.2.x", r.StableBranch())
	assert.Equal(t, "[5.2.x]", r.CommitPrefix())
	assert.False(t, r.IsPreRelease())
	assert.False(t, r.IsDotZero())

	dotZero, err := NewRelease("5.2")
	require.NoError(t, err)
	assert.True(t, dotZero.IsDotZero())

	rc, err := NewRelease("5.2rc1")
	require.NoError(t, err)
	assert.True(t, rc.IsPreRelease())
	assert.Equal(t, "release candidate", rc.StatusDisplay())
}

func TestSameVersionIgnoresStatus(t *testing.T) {
	final, err := NewRelease("5.2")
	require.NoError(t, err)
	rc, err := NewRelease("5.2rc1")
	require.NoError(t, err)
	beta, err := NewRelease("5.2b1")
	require.NoError(t, err)
	micro, err := NewRelease("5.2.1")
	require.NoError(t, err)

	assert.True(t, final.SameVersion(rc))
	assert.True(t, rc.SameVersion(beta))
	assert.Equal(t, final.Key(), rc.Key())
	assert.False(t, final.SameVersion(micro))
	assert.True(t, final.Less(micro))
	assert.False(t, micro.Less(final))
}

func TestSortLessIncludesStatus(t *testing.T) {
	final, _ := NewRelease("5.2")
	rc, _ := NewRelease("5.2rc1")
	// rc sorts before final ascending, so final leads descending order
	assert.True(t, rc.SortLess(final))
	assert.False(t, final.SortLess(rc))
}

func TestCleanPublishingConstraints(t *testing.T) {
	today := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	r, err := NewRelease("1.0")
	require.NoError(t, err)
	r.IsActive = true
	r.Date = &today

	err = r.Clean("Django", today)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tarball", verr.Field)

	r.Tarball = "django-1.0.tar.gz"
	err = r.Clean("Django", today)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "checksum", verr.Field)

	r.Checksum = "Django-1.0.checksum.txt"
	assert.NoError(t, r.Clean("Django", today))
}

func TestValidateArtifactName(t *testing.T) {
	valid := []struct {
		version, filename, suffix string
	}{
		{"1.0", "django-1.0.tar.gz", ".tar.gz"},
		{"1.0", "Django-1.0.tar.gz", ".tar.gz"},
		{"1.10", "django-1.10.tar.gz", ".tar.gz"},
		{"1.2.3", "django-1.2.3.tar.gz", ".tar.gz"},
		{"1.0a1", "django-1.0a1.tar.gz", ".tar.gz"},
		{"1.0rc1", "django-1.0rc1.tar.gz", ".tar.gz"},
		{"1.0", "django-1.0-py3-none-any.whl", "-py3-none-any.whl"},
		{"1.0", "releases/1.0/django-1.0.tar.gz", ".tar.gz"}, // folder prefix stripped
	}
	for _, c := range valid {
		r, err := NewRelease(c.version)
		require.NoError(t, err)
		assert.NoError(t, r.ValidateArtifactName(c.filename, c.suffix, "Django"),
			"%s %s", c.version, c.filename)
	}

	invalid := []struct {
		version, filename, suffix string
	}{
		{"1.0", "django-1.2.tar.gz", ".tar.gz"},
		{"1.0", "django-1.0.1.tar.gz", ".tar.gz"},
		{"1.0.1", "django-1.0.tar.gz", ".tar.gz"},
		{"1.0a1", "django-1.0.tar.gz", ".tar.gz"},
		{"1.0", "django-1.0.tar.xz", ".tar.gz"},
		{"1.0", "django-1.0.whl", "-py3-none-any.whl"},
		{"1.0", "DJANGO-1.0.tar.gz", ".tar.gz"},
	}
	for _, c := range invalid {
		r, err := NewRelease(c.version)
		require.NoError(t, err)
		assert.Error(t, r.ValidateArtifactName(c.filename, c.suffix, "Django"),
			"%s %s", c.version, c.filename)
	}
}

func TestUploadPaths(t *testing.T) {
	r, err := NewRelease("5.2.1")
	require.NoError(t, err)
	assert.Equal(t, "releases/5.2/django-5.2.1.tar.gz", UploadToArtifact(r, "django-5.2.1.tar.gz"))

	alpha, err := NewRelease("5.2a1")
	require.NoError(t, err)
	assert.Equal(t, "pgp/Django-5.2a1.checksum.txt", UploadToChecksum(alpha, "Django"))
	assert.Equal(t, "releases/5.2/django-5.2a1.tar.gz", UploadToArtifact(alpha, "django-5.2a1.tar.gz"))

	plain, err := NewRelease("5.2")
	require.NoError(t, err)
	assert.Equal(t, "pgp/Django-5.2.checksum.txt", UploadToChecksum(plain, "Django"))
}
