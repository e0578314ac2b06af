package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releaseops/relman-backend/config"
	"github.com/releaseops/relman-backend/internal/cache"
	"github.com/releaseops/relman-backend/model"
)

var today = time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

func days(n int) *time.Time {
	t := today.AddDate(0, 0, n)
	return &t
}

func seedRelease(t *testing.T, store ReleaseStore, version string, active, lts bool, date, eol *time.Time) {
	t.Helper()
	r, err := model.NewRelease(version)
	require.NoError(t, err)
	r.IsActive = active
	r.IsLTS = lts
	r.Date = date
	r.EOLDate = eol
	require.NoError(t, store.SaveRelease(context.Background(), r))
}

// newQueryFixture populates the store with a decade of release history:
// supported, end-of-lifed, pre-release, unreleased and inactive entries.
func newQueryFixture(t *testing.T) *ReleaseService {
	t.Helper()
	store := NewMemoryStore()
	seedRelease(t, store, "1.4", true, true, days(-450), days(50))
	seedRelease(t, store, "1.5", true, false, days(-350), days(-150))
	seedRelease(t, store, "1.6", true, false, days(-250), days(-50))
	seedRelease(t, store, "1.7", true, false, days(-150), days(50))
	seedRelease(t, store, "1.8a1", true, false, days(-80), days(-65))
	seedRelease(t, store, "1.8b1", true, true, days(-65), days(-50))
	seedRelease(t, store, "1.8", true, true, days(-50), days(0))
	seedRelease(t, store, "1.8.1", true, true, days(0), nil)
	seedRelease(t, store, "1.9", true, false, nil, nil)
	seedRelease(t, store, "1.10", false, false, days(0), nil)

	svc := NewReleaseService(store, cache.NewMemory(), config.Defaults(), nil)
	svc.now = func() time.Time { return today }
	return svc
}

func versionsOf(releases []*model.Release) []string {
	out := make([]string, 0, len(releases))
	for _, r := range releases {
		out = append(out, r.Version)
	}
	return out
}

func TestPublished(t *testing.T) {
	svc := newQueryFixture(t)
	published, err := svc.Published(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.8.1", "1.7", "1.4"}, versionsOf(published))
}

func TestSupported(t *testing.T) {
	svc := newQueryFixture(t)
	supported, err := svc.Supported(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.8.1", "1.7", "1.4"}, versionsOf(supported))
}

func TestUnsupported(t *testing.T) {
	svc := newQueryFixture(t)
	unsupported, err := svc.Unsupported(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.6", "1.5"}, versionsOf(unsupported))
}

func TestCurrentAndPrevious(t *testing.T) {
	svc := newQueryFixture(t)
	ctx := context.Background()

	current, err := svc.Current(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "1.8.1", current.Version)

	previous, err := svc.Previous(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, "1.7", previous.Version)

	require.NoError(t, svc.store.DeleteRelease(ctx, "1.8.1"))
	current, err = svc.Current(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "1.7", current.Version)
}

func TestLTS(t *testing.T) {
	svc := newQueryFixture(t)
	ctx := context.Background()

	lts, err := svc.LTS(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.8.1", "1.4"}, versionsOf(lts))

	currentLTS, err := svc.CurrentLTS(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, currentLTS)
	assert.Equal(t, "1.8.1", currentLTS.Version)

	previousLTS, err := svc.PreviousLTS(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, previousLTS)
	assert.Equal(t, "1.4", previousLTS.Version)

	require.NoError(t, svc.store.DeleteRelease(ctx, "1.8.1"))
	currentLTS, err = svc.CurrentLTS(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, currentLTS)
	assert.Equal(t, "1.4", currentLTS.Version)

	previousLTS, err = svc.PreviousLTS(ctx, today)
	require.NoError(t, err)
	assert.Nil(t, previousLTS)
}

func TestPreview(t *testing.T) {
	svc := newQueryFixture(t)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, today)
	require.NoError(t, err)
	assert.Nil(t, preview)

	seedRelease(t, svc.store, "1.9b2", true, false, days(0), nil)
	preview, err = svc.Preview(ctx, today)
	require.NoError(t, err)
	require.NotNil(t, preview)
	assert.Equal(t, "1.9b2", preview.Version)
}

func TestCurrentVersionCaching(t *testing.T) {
	svc := newQueryFixture(t)
	ctx := context.Background()

	version, err := svc.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.8.1", version)

	// The cached value survives changes to the underlying data until a save
	// invalidates it.
	require.NoError(t, svc.store.DeleteRelease(ctx, "1.8.1"))
	version, err = svc.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.8.1", version)

	next, err := model.NewRelease("1.8.2")
	require.NoError(t, err)
	next.IsActive = true
	next.Date = days(0)
	next.Tarball = "django-1.8.2.tar.gz"
	next.Checksum = "Django-1.8.2.checksum.txt"
	require.NoError(t, svc.Save(ctx, next))

	version, err = svc.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.8.2", version)
}

func TestCurrentVersionEmptyIsCached(t *testing.T) {
	svc := NewReleaseService(NewMemoryStore(), cache.NewMemory(), config.Defaults(), nil)
	svc.now = func() time.Time { return today }

	version, err := svc.CurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", version)

	cached, ok := svc.cache.Get(svc.cfg.CacheKey())
	assert.True(t, ok)
	assert.Equal(t, "", cached)
}

func TestSaveSetsEOLDateOnPreviousMicro(t *testing.T) {
	cases := []struct {
		date     *time.Time
		isActive bool
		wantEOL  *time.Time
	}{
		{nil, true, nil},
		{nil, false, nil},
		{days(0), true, days(0)},
		{days(0), false, nil},
		{days(-1), true, days(-1)},
		{days(-1), false, nil},
		{days(1), true, days(1)},
		{days(1), false, nil},
	}
	for i, c := range cases {
		store := NewMemoryStore()
		svc := NewReleaseService(store, cache.NewMemory(), config.Defaults(), nil)
		svc.now = func() time.Time { return today }
		ctx := context.Background()

		previousVersion := fmt.Sprintf("%d.1.1", i+1)
		seedRelease(t, store, previousVersion, false, false, nil, nil)

		release, err := model.NewRelease(fmt.Sprintf("%d.1.2", i+1))
		require.NoError(t, err)
		release.IsActive = c.isActive
		release.Date = c.date
		if release.IsPublished(today) {
			release.Tarball = fmt.Sprintf("django-%s.tar.gz", release.Version)
			release.Checksum = fmt.Sprintf("Django-%s.checksum.txt", release.Version)
		}
		require.NoError(t, svc.Save(ctx, release))

		previous, err := store.GetRelease(ctx, previousVersion)
		require.NoError(t, err)
		assert.Equal(t, c.wantEOL, previous.EOLDate, "date=%v active=%v", c.date, c.isActive)
	}
}

func TestSaveCascadeSkipsPreReleases(t *testing.T) {
	store := NewMemoryStore()
	svc := NewReleaseService(store, cache.NewMemory(), config.Defaults(), nil)
	svc.now = func() time.Time { return today }
	ctx := context.Background()

	// 2.0rc1 shares (major, minor, micro) with 2.0 but is not a final, so a
	// 2.0.1 release must not touch it.
	seedRelease(t, store, "2.0rc1", true, false, days(-30), days(-20))
	seedRelease(t, store, "2.0", true, false, days(-20), nil)

	release, err := model.NewRelease("2.0.1")
	require.NoError(t, err)
	release.IsActive = true
	release.Date = days(0)
	release.Tarball = "django-2.0.1.tar.gz"
	release.Checksum = "Django-2.0.1.checksum.txt"
	require.NoError(t, svc.Save(ctx, release))

	final, err := store.GetRelease(ctx, "2.0")
	require.NoError(t, err)
	assert.Equal(t, days(0), final.EOLDate)

	rc, err := store.GetRelease(ctx, "2.0rc1")
	require.NoError(t, err)
	assert.Equal(t, days(-20), rc.EOLDate)
}

func TestSaveValidates(t *testing.T) {
	svc := NewReleaseService(NewMemoryStore(), cache.NewMemory(), config.Defaults(), nil)
	svc.now = func() time.Time { return today }

	release, err := model.NewRelease("3.0")
	require.NoError(t, err)
	release.IsActive = true
	release.Date = days(0)

	err = svc.Save(context.Background(), release)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tarball", verr.Field)
}

type recordingPublisher struct {
	saved []string
}

func (p *recordingPublisher) ReleaseSaved(_ context.Context, release *model.Release) {
	p.saved = append(p.saved, release.Version)
}

func TestSavePublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewReleaseService(NewMemoryStore(), cache.NewMemory(), config.Defaults(), pub)
	svc.now = func() time.Time { return today }

	release, err := model.NewRelease("3.1")
	require.NoError(t, err)
	require.NoError(t, svc.Save(context.Background(), release))
	assert.Equal(t, []string{"3.1"}, pub.saved)
}
