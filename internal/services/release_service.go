package services

import (
	"context"
	"sort"
	"time"

	"github.com/releaseops/relman-backend/config"
	"github.com/releaseops/relman-backend/internal/cache"
	"github.com/releaseops/relman-backend/model"
)

// ReleasePublisher emits a notification after a release has been persisted.
// Implementations deal with delivery and failures themselves.
type ReleasePublisher interface {
	ReleaseSaved(ctx context.Context, release *model.Release)
}

// ReleaseService answers the release support-state queries and owns the
// release write path. All query methods take the reference date explicitly;
// a zero time means "now".
type ReleaseService struct {
	store ReleaseStore
	cache cache.Cache
	cfg   config.Config
	pub   ReleasePublisher

	now func() time.Time
}

// NewReleaseService wires a ReleaseService. pub may be nil to disable event
// production.
func NewReleaseService(store ReleaseStore, c cache.Cache, cfg config.Config, pub ReleasePublisher) *ReleaseService {
	return &ReleaseService{
		store: store,
		cache: c,
		cfg:   cfg,
		pub:   pub,
		now:   time.Now,
	}
}

func (s *ReleaseService) at(at time.Time) time.Time {
	if at.IsZero() {
		return s.now()
	}
	return at
}

// sortDescending orders releases by decreasing (major, minor, micro, status),
// mirroring the explicit ordering of the support queries. Status codes sort
// finals after release candidates, so descending order surfaces the final
// first within a micro.
func sortDescending(releases []*model.Release) {
	sort.Slice(releases, func(i, j int) bool {
		return releases[j].SortLess(releases[i])
	})
}

// Published lists the releases visible at the given date: active, dated in
// the past, not yet end-of-lifed, 1.0 or later. Sorted by decreasing version.
// A nil end-of-life date means the release is still supported.
func (s *ReleaseService) Published(ctx context.Context, at time.Time) ([]*model.Release, error) {
	at = s.at(at)
	all, err := s.store.ListReleases(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.Release
	for _, r := range all {
		if r.Major < 1 || !r.IsPublished(at) {
			continue
		}
		if r.EOLDate != nil && !r.EOLDate.After(at) {
			continue
		}
		out = append(out, r)
	}
	sortDescending(out)
	return out, nil
}

// Supported lists the published final releases.
func (s *ReleaseService) Supported(ctx context.Context, at time.Time) ([]*model.Release, error) {
	published, err := s.Published(ctx, at)
	if err != nil {
		return nil, err
	}
	var out []*model.Release
	for _, r := range published {
		if r.Status == "f" {
			out = append(out, r)
		}
	}
	return out, nil
}

// Unsupported lists the final releases whose support has ended, one per
// feature series: the highest end-of-lifed micro of every series that has no
// supported release left. Pre-1.0 releases are ignored.
func (s *ReleaseService) Unsupported(ctx context.Context, at time.Time) ([]*model.Release, error) {
	at = s.at(at)
	supported, err := s.Supported(ctx, at)
	if err != nil {
		return nil, err
	}
	excluded := make(map[[2]int]bool, len(supported))
	for _, r := range supported {
		excluded[[2]int{r.Major, r.Minor}] = true
	}

	all, err := s.store.ListReleases(ctx)
	if err != nil {
		return nil, err
	}
	var eoled []*model.Release
	for _, r := range all {
		if r.Major < 1 || r.Status != "f" {
			continue
		}
		if r.EOLDate == nil || r.EOLDate.After(at) {
			continue
		}
		eoled = append(eoled, r)
	}
	sortDescending(eoled)

	var out []*model.Release
	for _, r := range eoled {
		series := [2]int{r.Major, r.Minor}
		if excluded[series] {
			continue
		}
		excluded[series] = true
		out = append(out, r)
	}
	return out, nil
}

// Current returns the latest supported release, or nil when none exists.
func (s *ReleaseService) Current(ctx context.Context, at time.Time) (*model.Release, error) {
	supported, err := s.Supported(ctx, at)
	if err != nil || len(supported) == 0 {
		return nil, err
	}
	return supported[0], nil
}

// Previous returns the second-latest supported release, or nil.
func (s *ReleaseService) Previous(ctx context.Context, at time.Time) (*model.Release, error) {
	supported, err := s.Supported(ctx, at)
	if err != nil || len(supported) < 2 {
		return nil, err
	}
	return supported[1], nil
}

// LTS lists the supported long-term support releases.
func (s *ReleaseService) LTS(ctx context.Context, at time.Time) ([]*model.Release, error) {
	supported, err := s.Supported(ctx, at)
	if err != nil {
		return nil, err
	}
	var out []*model.Release
	for _, r := range supported {
		if r.IsLTS {
			out = append(out, r)
		}
	}
	return out, nil
}

// CurrentLTS returns the latest supported LTS release, or nil.
func (s *ReleaseService) CurrentLTS(ctx context.Context, at time.Time) (*model.Release, error) {
	lts, err := s.LTS(ctx, at)
	if err != nil || len(lts) == 0 {
		return nil, err
	}
	return lts[0], nil
}

// PreviousLTS returns the second-latest supported LTS release, or nil when
// only one LTS release is supported.
func (s *ReleaseService) PreviousLTS(ctx context.Context, at time.Time) (*model.Release, error) {
	lts, err := s.LTS(ctx, at)
	if err != nil || len(lts) < 2 {
		return nil, err
	}
	return lts[1], nil
}

// Preview returns the latest published pre-release, or nil when no preview
// is out.
func (s *ReleaseService) Preview(ctx context.Context, at time.Time) (*model.Release, error) {
	published, err := s.Published(ctx, at)
	if err != nil {
		return nil, err
	}
	for _, r := range published {
		if r.Status != "f" {
			return r, nil
		}
	}
	return nil, nil
}

// CurrentVersion returns the current release's version string, memoized in
// the cache. The empty string (also cached) means no current release exists.
func (s *ReleaseService) CurrentVersion(ctx context.Context) (string, error) {
	key := s.cfg.CacheKey()
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	current, err := s.Current(ctx, time.Time{})
	if err != nil {
		return "", err
	}
	version := ""
	if current != nil {
		version = current.Version
	}
	s.cache.Set(key, version, s.cfg.CacheTTL())
	return version, nil
}

// Save validates and persists a release, invalidates the current-version
// cache and, for an active final micro release, moves the previous micro of
// the same series to end-of-life on this release's date.
func (s *ReleaseService) Save(ctx context.Context, release *model.Release) error {
	if err := release.Normalize(); err != nil {
		return err
	}
	if err := release.Clean(s.cfg.ProductName, s.now()); err != nil {
		return err
	}
	s.cache.Delete(s.cfg.CacheKey())
	if err := s.store.SaveRelease(ctx, release); err != nil {
		return err
	}

	// Each micro release EOLs the previous one in the same series.
	if release.Status == "f" && release.Micro > 0 && release.IsActive {
		all, err := s.store.ListReleases(ctx)
		if err != nil {
			return err
		}
		for _, prev := range all {
			if prev.Major == release.Major && prev.Minor == release.Minor &&
				prev.Micro == release.Micro-1 && prev.Status == "f" {
				if err := s.store.SetEOLDate(ctx, prev.Version, release.Date); err != nil {
					return err
				}
			}
		}
	}

	if s.pub != nil {
		s.pub.ReleaseSaved(ctx, release)
	}
	return nil
}
