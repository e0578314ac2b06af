// Package model - SecurityIssue records one vulnerability (CVE) and its
// links to the releases that shipped the fix.
package model

import (
	"fmt"
	"time"

	"github.com/releaseops/relman-backend/util"
)

// CVETypeOther is the sentinel vulnerability category that requires a
// free-text OtherType description.
const CVETypeOther = "Other or Unknown"

// CVETypes are the accepted vulnerability categories.
var CVETypes = []string{
	"Buffer Overflow",
	"Cross Site Request Forgery (CSRF)",
	"Cross Site Scripting (XSS)",
	"Directory Traversal",
	"Incorrect Access Control",
	"Insecure Permissions",
	"Integer Overflow",
	"Missing SSL Certificate Validation",
	"SQL Injection",
	"XML External Entity (XXE)",
	CVETypeOther,
}

// AttackTypes are the accepted attack vectors.
var AttackTypes = []string{
	"Context-dependent",
	"Local",
	"Physical",
	"Remote",
	"Other",
}

// ImpactTypes are the accepted impact categories.
var ImpactTypes = []string{
	"Code Execution",
	"Denial of Service",
	"Escalation of Privileges",
	"Information Disclosure",
	"Other",
}

// SeverityTiers are the accepted severity levels, lowest first.
var SeverityTiers = []string{"low", "moderate", "high"}

// SecurityIssue is one vulnerability record. CveID is unique across all
// issues; ChecklistKey optionally points at the security release checklist
// that will ship the fix.
type SecurityIssue struct {
	Key             string `json:"_key,omitempty"`
	CveID           string `json:"cve_id"` // e.g. "CVE-2024-53907"
	CveType         string `json:"cve_type"`
	OtherType       string `json:"other_type,omitempty"` // required iff CveType is the Other sentinel
	AttackType      string `json:"attack_type"`
	Impact          string `json:"impact"`
	Severity        string `json:"severity"` // low, moderate or high
	CVSSVector      string `json:"cvss_vector,omitempty"`
	Summary         string `json:"summary"`
	Description     string `json:"description"`
	BlogDescription string `json:"blogdescription,omitempty"`
	Reporter        string `json:"reporter,omitempty"`
	ChecklistKey    string `json:"checklist_key,omitempty"`
	CommitHashMain  string `json:"commit_hash_main,omitempty"`
}

// NewSecurityIssue creates a SecurityIssue with the default categories.
func NewSecurityIssue(cveID string) *SecurityIssue {
	return &SecurityIssue{
		Key:        util.SanitizeKey(cveID),
		CveID:      cveID,
		CveType:    CVETypeOther,
		OtherType:  "DoS",
		AttackType: "Remote",
		Impact:     "Denial of Service",
		Severity:   "moderate",
	}
}

// Validate checks the field-level invariants. The OtherType free text must
// be set exactly when the category is the Other sentinel.
func (i *SecurityIssue) Validate() error {
	if i.CveID == "" {
		return &ValidationError{Field: "cve_id", Message: "This field is required."}
	}
	if !util.Contains(CVETypes, i.CveType) {
		return &ValidationError{Field: "cve_type", Message: fmt.Sprintf("%q is not a valid vulnerability type.", i.CveType)}
	}
	if i.CveType == CVETypeOther && i.OtherType == "" {
		return &ValidationError{
			Field:   "other_type",
			Message: `"Other type" needs to be set when "Vulnerability type" is ` + CVETypeOther,
		}
	}
	if i.CveType != CVETypeOther && i.OtherType != "" {
		return &ValidationError{
			Field:   "other_type",
			Message: fmt.Sprintf(`"Other type" should be blank for %q.`, i.CveType),
		}
	}
	if !util.Contains(AttackTypes, i.AttackType) {
		return &ValidationError{Field: "attack_type", Message: fmt.Sprintf("%q is not a valid attack type.", i.AttackType)}
	}
	if !util.Contains(ImpactTypes, i.Impact) {
		return &ValidationError{Field: "impact", Message: fmt.Sprintf("%q is not a valid impact.", i.Impact)}
	}
	if !util.Contains(SeverityTiers, i.Severity) {
		return &ValidationError{Field: "severity", Message: fmt.Sprintf("%q is not a valid severity.", i.Severity)}
	}
	return nil
}

// SuggestedSeverity derives a severity tier from the CVSS vector when one
// was provided. Returns the stored tier otherwise. The stored tier always
// wins in advisory output; this is an operator aid.
func (i *SecurityIssue) SuggestedSeverity() string {
	if i.CVSSVector == "" {
		return i.Severity
	}
	score := util.CalculateCVSSScore(i.CVSSVector)
	if score == 0 {
		return i.Severity
	}
	return util.SeverityTierForScore(score)
}

// HeadlineForBlogpost is the issue's one-line heading in release announcements.
func (i *SecurityIssue) HeadlineForBlogpost() string {
	return fmt.Sprintf("%s: %s", i.CveID, i.Summary)
}

// HeadlineForArchive renders the security archive entry heading for the
// given publication time.
func (i *SecurityIssue) HeadlineForArchive(when time.Time) string {
	return fmt.Sprintf("%s - :cve:`%s`", when.Format("January 2, 2006"),
		trimCVEPrefix(i.CveID))
}

func trimCVEPrefix(cveID string) string {
	const prefix = "CVE-"
	if len(cveID) > len(prefix) && cveID[:len(prefix)] == prefix {
		return cveID[len(prefix):]
	}
	return cveID
}

// SecurityIssueReleaseLink joins a SecurityIssue to a Release, carrying the
// commit hash that fixed the issue on that release's stable branch.
// Unique per (issue, release); a non-empty commit hash is globally unique
// so one fix commit is never attributed to two issues or releases.
type SecurityIssueReleaseLink struct {
	Key            string `json:"_key,omitempty"`
	IssueKey       string `json:"issue_key"`
	ReleaseVersion string `json:"release_version"` // joins on the version string
	CommitHash     string `json:"commit_hash,omitempty"`
}

// NewSecurityIssueReleaseLink creates a link with its composite key.
func NewSecurityIssueReleaseLink(issueKey, releaseVersion, commitHash string) *SecurityIssueReleaseLink {
	return &SecurityIssueReleaseLink{
		Key:            util.SanitizeKey(issueKey + ":" + releaseVersion),
		IssueKey:       issueKey,
		ReleaseVersion: releaseVersion,
		CommitHash:     commitHash,
	}
}
