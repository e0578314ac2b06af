// Package model - Checklist is the kind-tagged task list tracking the human
// workflow for producing a release. The four kinds share one record shape;
// the handful of derived fields that vary per kind go through KindBehavior.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/releaseops/relman-backend/util"
)

// ChecklistKind tags the checklist variant.
type ChecklistKind string

// Checklist kinds.
const (
	KindFeatureRelease  ChecklistKind = "feature"
	KindPreRelease      ChecklistKind = "prerelease"
	KindBugFixRelease   ChecklistKind = "bugfix"
	KindSecurityRelease ChecklistKind = "security"
)

// KindTitles maps each kind to its display title.
var KindTitles = map[ChecklistKind]string{
	KindFeatureRelease:  "FeatureRelease",
	KindPreRelease:      "PreRelease",
	KindBugFixRelease:   "BugFixRelease",
	KindSecurityRelease: "SecurityRelease",
}

// Checklist is one release checklist record. ReleaseVersion is the optional
// 1:1 link to a Release (unused for the security kind, which aggregates
// releases via security issues). FeatureChecklistKey ties pre-release and
// bugfix checklists to their feature release checklist.
type Checklist struct {
	Key                 string        `json:"_key,omitempty"`
	Kind                ChecklistKind `json:"kind"`
	When                time.Time     `json:"when"`
	ReleaserKey         string        `json:"releaser_key,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	ReleaseVersion      string        `json:"release_version,omitempty"`
	FeatureChecklistKey string        `json:"feature_checklist_key,omitempty"`

	// Feature release fields.
	Tagline           string `json:"tagline,omitempty"`
	Highlights        string `json:"highlights,omitempty"`
	ForumPost         string `json:"forum_post,omitempty"`
	EOMReleaseVersion string `json:"eom_release_version,omitempty"` // end of mainstream support
	EOLReleaseVersion string `json:"eol_release_version,omitempty"`

	// Pre-release fields.
	VerboseVersion string `json:"verbose_version,omitempty"` // e.g. "5.2 alpha 1"
}

// NewChecklist creates a checklist of the given kind scheduled at when.
func NewChecklist(kind ChecklistKind, when time.Time) *Checklist {
	now := time.Now().UTC()
	return &Checklist{
		Kind:      kind,
		When:      when,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Title is the checklist's display title.
func (c *Checklist) Title() string {
	return KindTitles[c.Kind]
}

// StatusName returns the long status name of the linked release, or "" when
// no release is linked yet.
func (c *Checklist) StatusName(release *Release) string {
	if release == nil {
		return ""
	}
	return util.StatusFromCode(release.Status)
}

// DisplayVersion returns the linked release's version, or "many" for
// checklists spanning several releases.
func (c *Checklist) DisplayVersion(release *Release) string {
	if release == nil {
		return "many"
	}
	return release.Version
}

// TroveClassifier maps the linked release's status onto the packaging
// development-status classifier.
func (c *Checklist) TroveClassifier(release *Release) string {
	switch c.StatusName(release) {
	case util.StatusAlpha:
		return "Development Status :: 3 - Alpha"
	case util.StatusBeta, util.StatusRC:
		return "Development Status :: 4 - Beta"
	default:
		return "Development Status :: 5 - Production/Stable"
	}
}

// BlogpostLink is the public announcement URL for this checklist's slug.
func (c *Checklist) BlogpostLink(baseURL, slug string) string {
	when := strings.ToLower(c.When.Format("2006/Jan/02"))
	return fmt.Sprintf("%s/%s/%s/", strings.TrimRight(baseURL, "/"), when, slug)
}

// BlogpostTemplate selects the announcement template for a release status.
func (c *Checklist) BlogpostTemplate(release *Release) string {
	return fmt.Sprintf("generator/release_%s_blogpost.rst", c.StatusName(release))
}

// SlugInfo carries the inputs the per-kind slug computation needs.
type SlugInfo struct {
	Product      string // lowercased in slugs
	Version      string // linked release version
	FinalVersion string // feature release's version, for pre-releases
	Status       string // long status name, for pre-releases
}

// KindBehavior is the capability interface for the computed fields that
// vary per checklist kind.
type KindBehavior interface {
	Slug(info SlugInfo) string
	ChecklistTemplate() string
	BlogpostSummary(c *Checklist, info SlugInfo) string
}

type featureReleaseKind struct{}
type preReleaseKind struct{}
type bugFixReleaseKind struct{}
type securityReleaseKind struct{}

// BehaviorFor returns the strategy for a checklist kind.
func BehaviorFor(kind ChecklistKind) KindBehavior {
	switch kind {
	case KindPreRelease:
		return preReleaseKind{}
	case KindBugFixRelease:
		return bugFixReleaseKind{}
	case KindSecurityRelease:
		return securityReleaseKind{}
	default:
		return featureReleaseKind{}
	}
}

func slugVersion(version string) string {
	return strings.ReplaceAll(version, ".", "")
}

func (featureReleaseKind) Slug(info SlugInfo) string {
	return fmt.Sprintf("%s-%s-released", strings.ToLower(info.Product), slugVersion(info.Version))
}

func (featureReleaseKind) ChecklistTemplate() string {
	return "generator/release-skeleton.md"
}

func (featureReleaseKind) BlogpostSummary(_ *Checklist, info SlugInfo) string {
	return fmt.Sprintf("%s %s has been released!", info.Product, info.Version)
}

func (preReleaseKind) Slug(info SlugInfo) string {
	return fmt.Sprintf("%s-%s-%s-released",
		strings.ToLower(info.Product), slugVersion(info.FinalVersion), info.Status)
}

func (preReleaseKind) ChecklistTemplate() string {
	return "generator/release-skeleton.md"
}

func (preReleaseKind) BlogpostSummary(c *Checklist, info SlugInfo) string {
	return fmt.Sprintf(
		"Today %s %s, a preview/testing package for the upcoming %s %s release, is available.",
		info.Product, c.VerboseVersion, info.Product, info.FinalVersion)
}

func (bugFixReleaseKind) Slug(SlugInfo) string {
	return "bugfix-releases"
}

func (bugFixReleaseKind) ChecklistTemplate() string {
	return "generator/release-skeleton.md"
}

func (bugFixReleaseKind) BlogpostSummary(_ *Checklist, info SlugInfo) string {
	return fmt.Sprintf("%s %s has been released!", info.Product, info.Version)
}

func (securityReleaseKind) Slug(SlugInfo) string {
	return "security-releases"
}

func (securityReleaseKind) ChecklistTemplate() string {
	return "generator/release-security-skeleton.md"
}

func (securityReleaseKind) BlogpostSummary(c *Checklist, _ SlugInfo) string {
	return fmt.Sprintf("Security releases issued on %s", c.When.Format("January 2, 2006"))
}
