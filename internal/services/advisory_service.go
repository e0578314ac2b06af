package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/releaseops/relman-backend/config"
	"github.com/releaseops/relman-backend/model"
	"github.com/releaseops/relman-backend/util"
)

// AdvisoryService aggregates security issues and their fixed releases into
// the published advisory artifacts: affected release/branch lists for a
// security release checklist, per-issue commit hash tables and the CVE
// Record Format JSON document.
type AdvisoryService struct {
	store Store
	cfg   config.Config
}

// NewAdvisoryService wires an AdvisoryService.
func NewAdvisoryService(store Store, cfg config.Config) *AdvisoryService {
	return &AdvisoryService{store: store, cfg: cfg}
}

// CVEs lists the issues fixed by a security release checklist, ordered by
// CVE identifier.
func (s *AdvisoryService) CVEs(ctx context.Context, checklistKey string) ([]*model.SecurityIssue, error) {
	return s.store.ListIssuesForChecklist(ctx, checklistKey)
}

// AffectedReleases lists the distinct releases fixed by a security release
// checklist, in decreasing version order. Releases are deduplicated under
// the (major, minor, micro) relation, so two pre-release stages of the same
// version count once.
func (s *AdvisoryService) AffectedReleases(ctx context.Context, checklistKey string) ([]*model.Release, error) {
	issues, err := s.store.ListIssuesForChecklist(ctx, checklistKey)
	if err != nil {
		return nil, err
	}
	seen := make(map[model.VersionKey]bool)
	var out []*model.Release
	for _, issue := range issues {
		links, err := s.store.ListLinksForIssue(ctx, issue.Key)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			release, err := s.store.GetRelease(ctx, link.ReleaseVersion)
			if err != nil {
				return nil, err
			}
			if seen[release.Key()] {
				continue
			}
			seen[release.Key()] = true
			out = append(out, release)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Less(out[i]) })
	return out, nil
}

// AffectedBranches lists the VCS branches patched by a security release:
// always "main", then the feature version of every affected release. A
// pre-release branch is annotated with its current status.
func (s *AdvisoryService) AffectedBranches(ctx context.Context, checklistKey string) ([]string, error) {
	releases, err := s.AffectedReleases(ctx, checklistKey)
	if err != nil {
		return nil, err
	}
	branches := []string{"main"}
	for _, r := range releases {
		if r.IsPreRelease() {
			branches = append(branches,
				fmt.Sprintf("%s (currently at %s status)", r.FeatureVersion(), r.StatusDisplay()))
		} else {
			branches = append(branches, r.FeatureVersion())
		}
	}
	return branches, nil
}

// Versions lists the final affected versions of a security release, in
// decreasing order.
func (s *AdvisoryService) Versions(ctx context.Context, checklistKey string) ([]string, error) {
	releases, err := s.AffectedReleases(ctx, checklistKey)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range releases {
		if !r.IsPreRelease() {
			out = append(out, r.Version)
		}
	}
	return out, nil
}

// VersionDisplay renders the affected final versions as a single slash-
// separated string for headlines, e.g. "5.1.8 / 5.0.14".
func (s *AdvisoryService) VersionDisplay(ctx context.Context, checklistKey string) (string, error) {
	versions, err := s.Versions(ctx, checklistKey)
	if err != nil {
		return "", err
	}
	return strings.Join(versions, " / "), nil
}

// LatestRelease returns the highest final release affected by a security
// release checklist, or nil when only pre-releases are affected.
func (s *AdvisoryService) LatestRelease(ctx context.Context, checklistKey string) (*model.Release, error) {
	releases, err := s.AffectedReleases(ctx, checklistKey)
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		if !r.IsPreRelease() {
			return r, nil
		}
	}
	return nil, nil
}

// VersionHash is one row of the per-checklist commit hash table.
type VersionHash struct {
	Branch string `json:"branch"`
	CVE    string `json:"cve"`
	Hash   string `json:"hash"`
}

// HashesByVersions lists every fix commit of a security release: one row per
// (issue, release) link ordered by release version, followed by one row per
// issue for the fix on the main branch.
func (s *AdvisoryService) HashesByVersions(ctx context.Context, checklistKey string) ([]VersionHash, error) {
	issues, err := s.store.ListIssuesForChecklist(ctx, checklistKey)
	if err != nil {
		return nil, err
	}
	type row struct {
		version string
		VersionHash
	}
	var branchRows []row
	var mainRows []VersionHash
	for _, issue := range issues {
		links, err := s.store.ListLinksForIssue(ctx, issue.Key)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			release, err := s.store.GetRelease(ctx, link.ReleaseVersion)
			if err != nil {
				return nil, err
			}
			branchRows = append(branchRows, row{
				version: release.Version,
				VersionHash: VersionHash{
					Branch: release.FeatureVersion(),
					CVE:    issue.CveID,
					Hash:   link.CommitHash,
				},
			})
		}
		mainRows = append(mainRows, VersionHash{
			Branch: "main",
			CVE:    issue.CveID,
			Hash:   issue.CommitHashMain,
		})
	}
	sort.SliceStable(branchRows, func(i, j int) bool {
		return branchRows[i].version < branchRows[j].version
	})
	out := make([]VersionHash, 0, len(branchRows)+len(mainRows))
	for _, r := range branchRows {
		out = append(out, r.VersionHash)
	}
	return append(out, mainRows...), nil
}

// BranchHash is one (branch, commit hash) pair for a single issue.
type BranchHash struct {
	Branch string `json:"branch"`
	Hash   string `json:"hash"`
}

// HashesByBranch lists an issue's fix commits per branch, "main" first then
// feature branches in decreasing order.
func (s *AdvisoryService) HashesByBranch(ctx context.Context, issue *model.SecurityIssue) ([]BranchHash, error) {
	links, err := s.store.ListLinksForIssue(ctx, issue.Key)
	if err != nil {
		return nil, err
	}
	rows := []BranchHash{{Branch: "main", Hash: issue.CommitHashMain}}
	for _, link := range links {
		release, err := s.store.GetRelease(ctx, link.ReleaseVersion)
		if err != nil {
			return nil, err
		}
		rows = append(rows, BranchHash{Branch: release.FeatureVersion(), Hash: link.CommitHash})
	}
	// "main" sorts above any numeric branch, keeping it first.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Branch != rows[j].Branch {
			return rows[i].Branch > rows[j].Branch
		}
		return rows[i].Hash > rows[j].Hash
	})
	return rows, nil
}

// finalReleasesDescending returns the issue's linked final releases in
// decreasing semantic version order.
func (s *AdvisoryService) finalReleasesDescending(ctx context.Context, issue *model.SecurityIssue) ([]*model.Release, error) {
	links, err := s.store.ListLinksForIssue(ctx, issue.Key)
	if err != nil {
		return nil, err
	}
	var out []*model.Release
	for _, link := range links {
		release, err := s.store.GetRelease(ctx, link.ReleaseVersion)
		if err != nil {
			return nil, err
		}
		if release.Status == "f" {
			out = append(out, release)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		vi, erri := semver.NewVersion(out[i].Version)
		vj, errj := semver.NewVersion(out[j].Version)
		if erri != nil || errj != nil {
			return out[j].Less(out[i])
		}
		return vi.GreaterThan(vj)
	})
	return out, nil
}

// CVERecord builds the CNA container of the issue's CVE record: title,
// severity metric, description, semver version ranges per affected feature
// series, the advisory reference, reporter credit and publication timeline.
// The issue must be assigned to a security release checklist, whose date
// drives the timeline fields.
func (s *AdvisoryService) CVERecord(ctx context.Context, issue *model.SecurityIssue) (map[string]any, error) {
	if issue.ChecklistKey == "" {
		return nil, fmt.Errorf("issue %s is not assigned to a security release", issue.CveID)
	}
	checklist, err := s.store.GetChecklist(ctx, issue.ChecklistKey)
	if err != nil {
		return nil, err
	}
	finals, err := s.finalReleasesDescending(ctx, issue)
	if err != nil {
		return nil, err
	}

	var versions []string
	versionRanges := []any{}
	for _, release := range finals {
		versions = append(versions, release.Version)
		versionRanges = append(versionRanges,
			map[string]any{
				"status":      "affected",
				"version":     release.FeatureVersion() + ".0",
				"lessThan":    release.Version,
				"versionType": "semver",
			},
			map[string]any{
				"status":      "unaffected",
				"version":     release.Version,
				"lessThan":    release.FeatureVersion() + ".*",
				"versionType": "semver",
			},
		)
	}

	product := s.cfg.ProductName
	slug := model.BehaviorFor(model.KindSecurityRelease).Slug(model.SlugInfo{Product: product})
	return map[string]any{
		"title": strings.ReplaceAll(issue.Summary, "`", ""),
		"metrics": []any{
			map[string]any{
				"other": map[string]any{
					"content": map[string]any{
						"value":     issue.Severity,
						"namespace": s.cfg.SeverityDocsURL,
					},
					"type": product + " severity rating",
				},
			},
		},
		"descriptions": []any{
			map[string]any{"lang": "en", "value": issue.Description},
		},
		"affected": []any{
			map[string]any{
				"packageName":   s.cfg.PackageName(),
				"collectionURL": s.cfg.CollectionURL,
				"defaultStatus": "affected",
				"versions":      versionRanges,
			},
		},
		"references": []any{
			map[string]any{
				"url": checklist.BlogpostLink(s.cfg.WeblogBaseURL, slug),
				"name": fmt.Sprintf("%s security releases issued: %s",
					product, util.EnumerateItems(versions)),
				"tags": []any{"vendor-advisory"},
			},
		},
		"credits": []any{
			map[string]any{
				"lang": "en",
				"type": "reporter",
				"value": fmt.Sprintf("%s would like to thank %s for reporting this issue.",
					product, issue.Reporter),
			},
		},
		"timeline": []any{
			map[string]any{
				"lang":  "en",
				"time":  checklist.When.Format(time.RFC3339),
				"value": "Made public.",
			},
		},
		"datePublic": checklist.When.Format("01/02/2006"),
	}, nil
}

// CVEJSON renders the issue's CVE record as indented JSON with
// deterministically sorted keys.
func (s *AdvisoryService) CVEJSON(ctx context.Context, issue *model.SecurityIssue) (string, error) {
	record, err := s.CVERecord(ctx, issue)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CVEMinifiedJSON renders the issue's CVE record as compact JSON, the form
// pasted into the CVE submission tooling.
func (s *AdvisoryService) CVEMinifiedJSON(ctx context.Context, issue *model.SecurityIssue) (string, error) {
	record, err := s.CVERecord(ctx, issue)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
