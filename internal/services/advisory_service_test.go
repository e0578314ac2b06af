package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releaseops/relman-backend/config"
	"github.com/releaseops/relman-backend/model"
)

// newAdvisoryFixture builds the December 2024 security release: one CVE
// fixed in 5.1.8, 5.0.14 and the 5.2 release candidate.
func newAdvisoryFixture(t *testing.T) (*AdvisoryService, *model.SecurityIssue, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	ctx := context.Background()

	when := time.Date(2024, 12, 4, 10, 0, 0, 0, time.UTC)
	checklist := model.NewChecklist(model.KindSecurityRelease, when)
	checklist.Key = "security-2024-12-04"
	require.NoError(t, store.SaveChecklist(ctx, checklist))

	seedRelease(t, store, "5.1.8", true, false, &when, nil)
	seedRelease(t, store, "5.0.14", true, false, &when, nil)
	seedRelease(t, store, "5.2rc1", true, false, &when, nil)

	issue := model.NewSecurityIssue("CVE-2024-53907")
	issue.Summary = "Potential denial-of-service in django.utils.html.strip_tags()"
	issue.Description = "The strip_tags() function and striptags template filter are subject to a potential denial-of-service attack via certain inputs containing large sequences of nested incomplete HTML entities."
	issue.Reporter = "jiangniao"
	issue.ChecklistKey = checklist.Key
	issue.CommitHashMain = "857b1766db23c0f98b7e0d46f89f2fbfa0b37663"
	require.NoError(t, issue.Validate())
	require.NoError(t, store.SaveIssue(ctx, issue))

	for version, hash := range map[string]string{
		"5.1.8":  "b410499b0b1b6715c44b3bbb1e8227bb7e2d0e50",
		"5.0.14": "5cb4bbaaf05099d6d1bd2a511038f05f0f09b8d4",
		"5.2rc1": "6cbee74ed0e3e4ae82708e858859093b6cd8d4e8",
	} {
		link := model.NewSecurityIssueReleaseLink(issue.Key, version, hash)
		require.NoError(t, store.SaveLink(ctx, link))
	}

	return NewAdvisoryService(store, config.Defaults()), issue, store
}

func TestAffectedReleases(t *testing.T) {
	svc, _, _ := newAdvisoryFixture(t)
	releases, err := svc.AffectedReleases(context.Background(), "security-2024-12-04")
	require.NoError(t, err)
	assert.Equal(t, []string{"5.2rc1", "5.1.8", "5.0.14"}, versionsOf(releases))
}

func TestAffectedReleasesDeduplicates(t *testing.T) {
	svc, issue, store := newAdvisoryFixture(t)
	ctx := context.Background()

	// A second issue fixed in the same releases must not duplicate them.
	other := model.NewSecurityIssue("CVE-2024-53908")
	other.Summary = "Potential SQL injection in HasKey(lhs, rhs) on Oracle"
	other.Description = "Direct usage of the HasKey lookup is subject to SQL injection."
	other.ChecklistKey = issue.ChecklistKey
	require.NoError(t, store.SaveIssue(ctx, other))
	require.NoError(t, store.SaveLink(ctx,
		model.NewSecurityIssueReleaseLink(other.Key, "5.1.8", "2fb1b88fcf68ad3dd4fd88e1b0d5bb83091fc11b")))

	releases, err := svc.AffectedReleases(ctx, "security-2024-12-04")
	require.NoError(t, err)
	assert.Equal(t, []string{"5.2rc1", "5.1.8", "5.0.14"}, versionsOf(releases))
}

func TestAffectedBranches(t *testing.T) {
	svc, _, _ := newAdvisoryFixture(t)
	branches, err := svc.AffectedBranches(context.Background(), "security-2024-12-04")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"main",
		"5.2 (currently at release candidate status)",
		"5.1",
		"5.0",
	}, branches)
}

func TestVersionsAndDisplay(t *testing.T) {
	svc, _, _ := newAdvisoryFixture(t)
	ctx := context.Background()

	versions, err := svc.Versions(ctx, "security-2024-12-04")
	require.NoError(t, err)
	assert.Equal(t, []string{"5.1.8", "5.0.14"}, versions)

	display, err := svc.VersionDisplay(ctx, "security-2024-12-04")
	require.NoError(t, err)
	assert.Equal(t, "5.1.8 / 5.0.14", display)

	latest, err := svc.LatestRelease(ctx, "security-2024-12-04")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "5.1.8", latest.Version)
}

func TestHashesByBranch(t *testing.T) {
	svc, issue, _ := newAdvisoryFixture(t)
	rows, err := svc.HashesByBranch(context.Background(), issue)
	require.NoError(t, err)
	assert.Equal(t, []BranchHash{
		{Branch: "main", Hash: "857b1766db23c0f98b7e0d46f89f2fbfa0b37663"},
		{Branch: "5.2", Hash: "6cbee74ed0e3e4ae82708e858859093b6cd8d4e8"},
		{Branch: "5.1", Hash: "b410499b0b1b6715c44b3bbb1e8227bb7e2d0e50"},
		{Branch: "5.0", Hash: "5cb4bbaaf05099d6d1bd2a511038f05f0f09b8d4"},
	}, rows)
}

func TestHashesByVersions(t *testing.T) {
	svc, issue, _ := newAdvisoryFixture(t)
	rows, err := svc.HashesByVersions(context.Background(), "security-2024-12-04")
	require.NoError(t, err)
	assert.Equal(t, []VersionHash{
		{Branch: "5.0", CVE: issue.CveID, Hash: "5cb4bbaaf05099d6d1bd2a511038f05f0f09b8d4"},
		{Branch: "5.1", CVE: issue.CveID, Hash: "b410499b0b1b6715c44b3bbb1e8227bb7e2d0e50"},
		{Branch: "5.2", CVE: issue.CveID, Hash: "6cbee74ed0e3e4ae82708e858859093b6cd8d4e8"},
		{Branch: "main", CVE: issue.CveID, Hash: "857b1766db23c0f98b7e0d46f89f2fbfa0b37663"},
	}, rows)
}

func TestCVERecord(t *testing.T) {
	svc, issue, _ := newAdvisoryFixture(t)
	record, err := svc.CVERecord(context.Background(), issue)
	require.NoError(t, err)

	assert.Equal(t, issue.Summary, record["title"])
	assert.Equal(t, "12/04/2024", record["datePublic"])

	affected := record["affected"].([]any)[0].(map[string]any)
	assert.Equal(t, "django", affected["packageName"])
	assert.Equal(t, "https://github.com/django/django/", affected["collectionURL"])
	assert.Equal(t, "affected", affected["defaultStatus"])

	// Only final releases contribute ranges, highest version first.
	assert.Equal(t, []any{
		map[string]any{
			"status":      "affected",
			"version":     "5.1.0",
			"lessThan":    "5.1.8",
			"versionType": "semver",
		},
		map[string]any{
			"status":      "unaffected",
			"version":     "5.1.8",
			"lessThan":    "5.1.*",
			"versionType": "semver",
		},
		map[string]any{
			"status":      "affected",
			"version":     "5.0.0",
			"lessThan":    "5.0.14",
			"versionType": "semver",
		},
		map[string]any{
			"status":      "unaffected",
			"version":     "5.0.14",
			"lessThan":    "5.0.*",
			"versionType": "semver",
		},
	}, affected["versions"])

	reference := record["references"].([]any)[0].(map[string]any)
	assert.Equal(t,
		"https://www.djangoproject.com/weblog/2024/dec/04/security-releases/",
		reference["url"])
	assert.Equal(t, "Django security releases issued: 5.1.8 and 5.0.14", reference["name"])

	credit := record["credits"].([]any)[0].(map[string]any)
	assert.Equal(t,
		"Django would like to thank jiangniao for reporting this issue.",
		credit["value"])

	timeline := record["timeline"].([]any)[0].(map[string]any)
	assert.Equal(t, "2024-12-04T10:00:00Z", timeline["time"])
	assert.Equal(t, "Made public.", timeline["value"])
}

func TestCVERecordStripsBackticks(t *testing.T) {
	svc, issue, store := newAdvisoryFixture(t)
	ctx := context.Background()
	issue.Summary = "Potential denial-of-service in `strip_tags()`"
	require.NoError(t, store.SaveIssue(ctx, issue))

	record, err := svc.CVERecord(ctx, issue)
	require.NoError(t, err)
	assert.Equal(t, "Potential denial-of-service in strip_tags()", record["title"])
}

func TestCVERecordRequiresChecklist(t *testing.T) {
	svc, issue, _ := newAdvisoryFixture(t)
	issue.ChecklistKey = ""
	_, err := svc.CVERecord(context.Background(), issue)
	assert.Error(t, err)
}

func TestCVEJSONRoundTrips(t *testing.T) {
	svc, issue, _ := newAdvisoryFixture(t)
	ctx := context.Background()

	pretty, err := svc.CVEJSON(ctx, issue)
	require.NoError(t, err)
	minified, err := svc.CVEMinifiedJSON(ctx, issue)
	require.NoError(t, err)

	var fromPretty, fromMinified map[string]any
	require.NoError(t, json.Unmarshal([]byte(pretty), &fromPretty))
	require.NoError(t, json.Unmarshal([]byte(minified), &fromMinified))
	assert.Equal(t, fromPretty, fromMinified)

	assert.Contains(t, pretty, "\n  \"affected\"")
	assert.NotContains(t, minified, "\n")
}

func TestSaveLinkCommitHashUnique(t *testing.T) {
	_, issue, store := newAdvisoryFixture(t)
	ctx := context.Background()

	duplicate := model.NewSecurityIssueReleaseLink(issue.Key, "4.2.17",
		"b410499b0b1b6715c44b3bbb1e8227bb7e2d0e50")
	err := store.SaveLink(ctx, duplicate)
	assert.ErrorIs(t, err, ErrConflict)

	// Empty hashes never conflict.
	require.NoError(t, store.SaveLink(ctx,
		model.NewSecurityIssueReleaseLink(issue.Key, "4.2.17", "")))
}
