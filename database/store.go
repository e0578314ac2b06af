package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/releaseops/relman-backend/internal/services"
	"github.com/releaseops/relman-backend/model"
)

// ArangoStore implements services.Store on top of the ArangoDB collections.
type ArangoStore struct {
	db DBConnection
}

// NewArangoStore wraps an initialized database connection.
func NewArangoStore(db DBConnection) *ArangoStore {
	return &ArangoStore{db: db}
}

func (s *ArangoStore) queryOne(ctx context.Context, query string, bindVars map[string]interface{}, out interface{}) error {
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return services.ErrNotFound
	}
	_, err = cursor.ReadDocument(ctx, out)
	return err
}

func (s *ArangoStore) GetRelease(ctx context.Context, version string) (*model.Release, error) {
	var release model.Release
	err := s.queryOne(ctx,
		`FOR r IN release FILTER r._key == @key LIMIT 1 RETURN r`,
		map[string]interface{}{"key": version}, &release)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", version, err)
	}
	return &release, nil
}

func (s *ArangoStore) ListReleases(ctx context.Context) ([]*model.Release, error) {
	cursor, err := s.db.Database.Query(ctx,
		`FOR r IN release SORT r._key RETURN r`, &arangodb.QueryOptions{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var out []*model.Release
	for cursor.HasMore() {
		var release model.Release
		if _, err := cursor.ReadDocument(ctx, &release); err != nil {
			return nil, err
		}
		out = append(out, &release)
	}
	return out, nil
}

func (s *ArangoStore) SaveRelease(ctx context.Context, release *model.Release) error {
	_, err := s.db.Database.Query(ctx,
		`UPSERT { _key: @key } INSERT @doc REPLACE @doc IN release`,
		&arangodb.QueryOptions{BindVars: map[string]interface{}{
			"key": release.Version,
			"doc": release,
		}})
	return err
}

func (s *ArangoStore) SetEOLDate(ctx context.Context, version string, eol *time.Time) error {
	_, err := s.db.Database.Query(ctx,
		`UPDATE @key WITH { eol_date: @eol } IN release OPTIONS { keepNull: true }`,
		&arangodb.QueryOptions{BindVars: map[string]interface{}{
			"key": version,
			"eol": eol,
		}})
	return err
}

func (s *ArangoStore) DeleteRelease(ctx context.Context, version string) error {
	_, err := s.db.Collections[ColRelease].DeleteDocument(ctx, version)
	return err
}

func (s *ArangoStore) GetReleaser(ctx context.Context, key string) (*model.Releaser, error) {
	var releaser model.Releaser
	err := s.queryOne(ctx,
		`FOR r IN releaser FILTER r._key == @key LIMIT 1 RETURN r`,
		map[string]interface{}{"key": key}, &releaser)
	if err != nil {
		return nil, fmt.Errorf("releaser %s: %w", key, err)
	}
	return &releaser, nil
}

func (s *ArangoStore) SaveReleaser(ctx context.Context, releaser *model.Releaser) error {
	_, err := s.db.Database.Query(ctx,
		`UPSERT { _key: @key } INSERT @doc REPLACE @doc IN releaser`,
		&arangodb.QueryOptions{BindVars: map[string]interface{}{
			"key": releaser.Key,
			"doc": releaser,
		}})
	return err
}

func (s *ArangoStore) GetIssue(ctx context.Context, key string) (*model.SecurityIssue, error) {
	var issue model.SecurityIssue
	err := s.queryOne(ctx,
		`FOR i IN security_issue FILTER i._key == @key LIMIT 1 RETURN i`,
		map[string]interface{}{"key": key}, &issue)
	if err != nil {
		return nil, fmt.Errorf("security issue %s: %w", key, err)
	}
	return &issue, nil
}

func (s *ArangoStore) ListIssues(ctx context.Context) ([]*model.SecurityIssue, error) {
	return s.queryIssues(ctx,
		`FOR i IN security_issue SORT i.cve_id RETURN i`, nil)
}

func (s *ArangoStore) ListIssuesForChecklist(ctx context.Context, checklistKey string) ([]*model.SecurityIssue, error) {
	return s.queryIssues(ctx,
		`FOR i IN security_issue FILTER i.checklist_key == @checklist SORT i.cve_id RETURN i`,
		map[string]interface{}{"checklist": checklistKey})
}

func (s *ArangoStore) queryIssues(ctx context.Context, query string, bindVars map[string]interface{}) ([]*model.SecurityIssue, error) {
	cursor, err := s.db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var out []*model.SecurityIssue
	for cursor.HasMore() {
		var issue model.SecurityIssue
		if _, err := cursor.ReadDocument(ctx, &issue); err != nil {
			return nil, err
		}
		out = append(out, &issue)
	}
	return out, nil
}

func (s *ArangoStore) SaveIssue(ctx context.Context, issue *model.SecurityIssue) error {
	_, err := s.db.Database.Query(ctx,
		`UPSERT { _key: @key } INSERT @doc REPLACE @doc IN security_issue`,
		&arangodb.QueryOptions{BindVars: map[string]interface{}{
			"key": issue.Key,
			"doc": issue,
		}})
	return err
}

func (s *ArangoStore) ListLinksForIssue(ctx context.Context, issueKey string) ([]*model.SecurityIssueReleaseLink, error) {
	cursor, err := s.db.Database.Query(ctx,
		`FOR l IN issue_release FILTER l.issue_key == @issue SORT l.release_version RETURN l`,
		&arangodb.QueryOptions{BindVars: map[string]interface{}{"issue": issueKey}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var out []*model.SecurityIssueReleaseLink
	for cursor.HasMore() {
		var link model.SecurityIssueReleaseLink
		if _, err := cursor.ReadDocument(ctx, &link); err != nil {
			return nil, err
		}
		out = append(out, &link)
	}
	return out, nil
}

func (s *ArangoStore) SaveLink(ctx context.Context, link *model.SecurityIssueReleaseLink) error {
	// The sparse unique index on commit_hash backs this check; doing it in
	// AQL first gives a typed error instead of a driver error.
	if link.CommitHash != "" {
		var existingKey string
		err := s.queryOne(ctx,
			`FOR l IN issue_release
				FILTER l.commit_hash == @hash AND l._key != @key
				LIMIT 1
				RETURN l._key`,
			map[string]interface{}{"hash": link.CommitHash, "key": link.Key}, &existingKey)
		if err == nil {
			return fmt.Errorf("commit hash %s already linked to %s: %w",
				link.CommitHash, existingKey, services.ErrConflict)
		}
		if !errors.Is(err, services.ErrNotFound) {
			return err
		}
	}
	_, err := s.db.Database.Query(ctx,
		`UPSERT { _key: @key } INSERT @doc REPLACE @doc IN issue_release`,
		&arangodb.QueryOptions{BindVars: map[string]interface{}{
			"key": link.Key,
			"doc": link,
		}})
	return err
}

func (s *ArangoStore) GetChecklist(ctx context.Context, key string) (*model.Checklist, error) {
	var checklist model.Checklist
	err := s.queryOne(ctx,
		`FOR c IN checklist FILTER c._key == @key LIMIT 1 RETURN c`,
		map[string]interface{}{"key": key}, &checklist)
	if err != nil {
		return nil, fmt.Errorf("checklist %s: %w", key, err)
	}
	return &checklist, nil
}

func (s *ArangoStore) ListChecklists(ctx context.Context) ([]*model.Checklist, error) {
	cursor, err := s.db.Database.Query(ctx,
		`FOR c IN checklist SORT c.when DESC RETURN c`, &arangodb.QueryOptions{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var out []*model.Checklist
	for cursor.HasMore() {
		var checklist model.Checklist
		if _, err := cursor.ReadDocument(ctx, &checklist); err != nil {
			return nil, err
		}
		out = append(out, &checklist)
	}
	return out, nil
}

func (s *ArangoStore) SaveChecklist(ctx context.Context, checklist *model.Checklist) error {
	_, err := s.db.Database.Query(ctx,
		`UPSERT { _key: @key } INSERT @doc REPLACE @doc IN checklist`,
		&arangodb.QueryOptions{BindVars: map[string]interface{}{
			"key": checklist.Key,
			"doc": checklist,
		}})
	return err
}

var _ services.Store = (*ArangoStore)(nil)
