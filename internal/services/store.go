// Package services implements the domain logic of the release backend: the
// release query engine, the security advisory aggregator and the checklist
// context builder. Persistence goes through the Store interfaces so the same
// logic runs against ArangoDB in production and an in-memory store in tests.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/releaseops/relman-backend/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ReleaseStore persists releases keyed by their version string.
type ReleaseStore interface {
	GetRelease(ctx context.Context, version string) (*model.Release, error)
	ListReleases(ctx context.Context) ([]*model.Release, error)
	SaveRelease(ctx context.Context, release *model.Release) error
	// SetEOLDate updates a release's end-of-life date in place; a nil date
	// clears it.
	SetEOLDate(ctx context.Context, version string, eol *time.Time) error
	DeleteRelease(ctx context.Context, version string) error
}

// ReleaserStore persists release manager identities.
type ReleaserStore interface {
	GetReleaser(ctx context.Context, key string) (*model.Releaser, error)
	SaveReleaser(ctx context.Context, releaser *model.Releaser) error
}

// IssueStore persists security issues and their links to releases.
type IssueStore interface {
	GetIssue(ctx context.Context, key string) (*model.SecurityIssue, error)
	ListIssues(ctx context.Context) ([]*model.SecurityIssue, error)
	// ListIssuesForChecklist returns the issues fixed by one security
	// release checklist, ordered by CVE identifier.
	ListIssuesForChecklist(ctx context.Context, checklistKey string) ([]*model.SecurityIssue, error)
	SaveIssue(ctx context.Context, issue *model.SecurityIssue) error
	ListLinksForIssue(ctx context.Context, issueKey string) ([]*model.SecurityIssueReleaseLink, error)
	// SaveLink upserts a link. A non-empty commit hash is unique across all
	// links; violating that returns ErrConflict.
	SaveLink(ctx context.Context, link *model.SecurityIssueReleaseLink) error
}

// ChecklistStore persists release checklists of all kinds.
type ChecklistStore interface {
	GetChecklist(ctx context.Context, key string) (*model.Checklist, error)
	ListChecklists(ctx context.Context) ([]*model.Checklist, error)
	SaveChecklist(ctx context.Context, checklist *model.Checklist) error
}

// Store is the full persistence surface of the backend.
type Store interface {
	ReleaseStore
	ReleaserStore
	IssueStore
	ChecklistStore
}
