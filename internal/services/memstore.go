package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/releaseops/relman-backend/model"
)

// MemoryStore is an in-process Store. It enforces the same uniqueness
// constraints as the database-backed store and is used by tests and the
// development server.
type MemoryStore struct {
	mu         sync.RWMutex
	releases   map[string]*model.Release
	releasers  map[string]*model.Releaser
	issues     map[string]*model.SecurityIssue
	links      map[string]*model.SecurityIssueReleaseLink
	checklists map[string]*model.Checklist
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		releases:   make(map[string]*model.Release),
		releasers:  make(map[string]*model.Releaser),
		issues:     make(map[string]*model.SecurityIssue),
		links:      make(map[string]*model.SecurityIssueReleaseLink),
		checklists: make(map[string]*model.Checklist),
	}
}

func (s *MemoryStore) GetRelease(_ context.Context, version string) (*model.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.releases[version]
	if !ok {
		return nil, fmt.Errorf("release %s: %w", version, ErrNotFound)
	}
	clone := *r
	return &clone, nil
}

func (s *MemoryStore) ListReleases(_ context.Context) ([]*model.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Release, 0, len(s.releases))
	for _, r := range s.releases {
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *MemoryStore) SaveRelease(_ context.Context, release *model.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *release
	s.releases[release.Version] = &clone
	return nil
}

func (s *MemoryStore) SetEOLDate(_ context.Context, version string, eol *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.releases[version]
	if !ok {
		return fmt.Errorf("release %s: %w", version, ErrNotFound)
	}
	r.EOLDate = eol
	return nil
}

func (s *MemoryStore) DeleteRelease(_ context.Context, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.releases[version]; !ok {
		return fmt.Errorf("release %s: %w", version, ErrNotFound)
	}
	delete(s.releases, version)
	return nil
}

func (s *MemoryStore) GetReleaser(_ context.Context, key string) (*model.Releaser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.releasers[key]
	if !ok {
		return nil, fmt.Errorf("releaser %s: %w", key, ErrNotFound)
	}
	clone := *r
	return &clone, nil
}

func (s *MemoryStore) SaveReleaser(_ context.Context, releaser *model.Releaser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *releaser
	s.releasers[releaser.Key] = &clone
	return nil
}

func (s *MemoryStore) GetIssue(_ context.Context, key string) (*model.SecurityIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.issues[key]
	if !ok {
		return nil, fmt.Errorf("security issue %s: %w", key, ErrNotFound)
	}
	clone := *i
	return &clone, nil
}

func (s *MemoryStore) ListIssues(_ context.Context) ([]*model.SecurityIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.SecurityIssue, 0, len(s.issues))
	for _, i := range s.issues {
		clone := *i
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CveID < out[j].CveID })
	return out, nil
}

func (s *MemoryStore) ListIssuesForChecklist(ctx context.Context, checklistKey string) ([]*model.SecurityIssue, error) {
	all, err := s.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.SecurityIssue
	for _, i := range all {
		if i.ChecklistKey == checklistKey {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveIssue(_ context.Context, issue *model.SecurityIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *issue
	s.issues[issue.Key] = &clone
	return nil
}

func (s *MemoryStore) ListLinksForIssue(_ context.Context, issueKey string) ([]*model.SecurityIssueReleaseLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.SecurityIssueReleaseLink
	for _, l := range s.links {
		if l.IssueKey == issueKey {
			clone := *l
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReleaseVersion < out[j].ReleaseVersion })
	return out, nil
}

func (s *MemoryStore) SaveLink(_ context.Context, link *model.SecurityIssueReleaseLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if link.CommitHash != "" {
		for _, existing := range s.links {
			if existing.Key != link.Key && existing.CommitHash == link.CommitHash {
				return fmt.Errorf("commit hash %s already linked to %s: %w",
					link.CommitHash, existing.Key, ErrConflict)
			}
		}
	}
	clone := *link
	s.links[link.Key] = &clone
	return nil
}

func (s *MemoryStore) GetChecklist(_ context.Context, key string) (*model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checklists[key]
	if !ok {
		return nil, fmt.Errorf("checklist %s: %w", key, ErrNotFound)
	}
	clone := *c
	return &clone, nil
}

func (s *MemoryStore) ListChecklists(_ context.Context) ([]*model.Checklist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Checklist, 0, len(s.checklists))
	for _, c := range s.checklists {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) SaveChecklist(_ context.Context, checklist *model.Checklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *checklist
	s.checklists[checklist.Key] = &clone
	return nil
}
