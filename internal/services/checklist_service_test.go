package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releaseops/relman-backend/config"
	"github.com/releaseops/relman-backend/model"
)

func newChecklistFixture(t *testing.T) (*ChecklistService, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	ctx := context.Background()

	releaser := &model.Releaser{
		Key:      "sarah",
		Username: "sarah",
		KeyID:    "2EE82A8D9470983E",
		KeyURL:   "https://github.com/sarahboyce.gpg",
	}
	require.NoError(t, store.SaveReleaser(ctx, releaser))

	when := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	seedRelease(t, store, "5.2", true, true, &when, nil)

	feature := model.NewChecklist(model.KindFeatureRelease, when)
	feature.Key = "feature-5.2"
	feature.ReleaserKey = releaser.Key
	feature.ReleaseVersion = "5.2"
	feature.Tagline = "a kaleidoscope of improvements"
	feature.ForumPost = "https://forum.djangoproject.com/t/django-5-2-released/38498"
	require.NoError(t, store.SaveChecklist(ctx, feature))

	return NewChecklistService(store, config.Defaults()), store
}

func TestFeatureChecklistContext(t *testing.T) {
	svc, _ := newChecklistFixture(t)
	got, err := svc.Context(context.Background(), "feature-5.2", nil)
	require.NoError(t, err)

	assert.Equal(t, "django-52-released", got["slug"])
	assert.Equal(t, "5.2", got["version"])
	assert.Equal(t, "FeatureRelease", got["title"])
	assert.Equal(t, "a kaleidoscope of improvements", got["tagline"])
	assert.Equal(t, "generator/release-skeleton.md", got["checklist_template"])
	assert.Equal(t, "Development Status :: 5 - Production/Stable", got["trove_classifier"])
	assert.Equal(t, "generator/release_final_blogpost.rst", got["blogpost_template"])
	assert.Equal(t,
		"https://www.djangoproject.com/weblog/2025/apr/02/django-52-released/",
		got["blogpost_link"])
	assert.Equal(t, "Django 5.2 has been released!", got["blogpost_summary"])

	releaser, ok := got["releaser"].(*model.Releaser)
	require.True(t, ok)
	assert.Equal(t, "2EE82A8D9470983E <https://github.com/sarahboyce.gpg>", releaser.String())

	release, ok := got["release"].(*model.Release)
	require.True(t, ok)
	assert.Equal(t, "5.2", release.Version)
}

func TestPreReleaseChecklistContext(t *testing.T) {
	svc, store := newChecklistFixture(t)
	ctx := context.Background()

	when := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	seedRelease(t, store, "5.2a1", true, false, &when, nil)

	pre := model.NewChecklist(model.KindPreRelease, when)
	pre.Key = "prerelease-5.2a1"
	pre.ReleaseVersion = "5.2a1"
	pre.FeatureChecklistKey = "feature-5.2"
	pre.VerboseVersion = "5.2 alpha 1"
	require.NoError(t, store.SaveChecklist(ctx, pre))

	got, err := svc.Context(ctx, "prerelease-5.2a1", nil)
	require.NoError(t, err)

	assert.Equal(t, "django-52-alpha-released", got["slug"])
	assert.Equal(t, "5.2a1", got["version"])
	assert.Equal(t, "PreRelease", got["title"])
	assert.Equal(t, "alpha", got["status"])
	assert.Equal(t, "Development Status :: 3 - Alpha", got["trove_classifier"])
	assert.Equal(t,
		"Today Django 5.2 alpha 1, a preview/testing package for the upcoming Django 5.2 release, is available.",
		got["blogpost_summary"])

	// Inherited from the feature release checklist.
	assert.Equal(t,
		"https://forum.djangoproject.com/t/django-5-2-released/38498",
		got["forum_post"])
}

func TestSecurityChecklistContext(t *testing.T) {
	svc, store := newChecklistFixture(t)
	ctx := context.Background()

	when := time.Date(2024, 12, 4, 10, 0, 0, 0, time.UTC)
	security := model.NewChecklist(model.KindSecurityRelease, when)
	security.Key = "security-2024-12-04"
	require.NoError(t, store.SaveChecklist(ctx, security))

	got, err := svc.Context(ctx, "security-2024-12-04", map[string]any{
		"affected_branches": []string{"main", "5.1", "5.0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "security-releases", got["slug"])
	assert.Equal(t, "many", got["version"])
	assert.Equal(t, "SecurityRelease", got["title"])
	assert.Equal(t, "generator/release-security-skeleton.md", got["checklist_template"])
	assert.Equal(t, []string{"main", "5.1", "5.0"}, got["affected_branches"])
	assert.Nil(t, got["releaser"])
	assert.NotContains(t, got, "release")
}

func TestContextMissingChecklist(t *testing.T) {
	svc, _ := newChecklistFixture(t)
	_, err := svc.Context(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
