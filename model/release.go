// Package model - Release defines the canonical record for one published
// artifact version and handles marshaling the struct to/from the database.
package model

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/releaseops/relman-backend/util"
)

// ValidationError reports a constraint violation attached to a specific
// record field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Release represents a release object stored in the database. The version
// string is the primary key: foreign-key references from checklists and
// security issue links join on it, never on a surrogate id.
type Release struct {
	Version   string     `json:"_key"`
	IsActive  bool       `json:"is_active"`
	Date      *time.Time `json:"date,omitempty"`     // nil means unreleased
	EOLDate   *time.Time `json:"eol_date,omitempty"` // nil means still supported
	IsLTS     bool       `json:"is_lts"`
	Major     int        `json:"major"`
	Minor     int        `json:"minor"`
	Micro     int        `json:"micro"`
	Status    string     `json:"status"` // a, b, c or f
	Iteration int        `json:"iteration"`

	// Artifact storage paths, relative to the media root.
	Tarball  string `json:"tarball,omitempty"`
	Wheel    string `json:"wheel,omitempty"`
	Checksum string `json:"checksum,omitempty"`

	parsed *util.Version // memoized decomposition of Version
}

// NewRelease creates a Release for the given version string with the
// decomposition already populated. Fails on a malformed version.
func NewRelease(version string) (*Release, error) {
	r := &Release{Version: version}
	if err := r.Normalize(); err != nil {
		return nil, err
	}
	return r, nil
}

// VersionTuple parses the version string into its normalized 5-tuple,
// memoized for the lifetime of this instance.
func (r *Release) VersionTuple() (util.Version, error) {
	if r.parsed != nil {
		return *r.parsed, nil
	}
	v, err := util.ParseVersion(r.Version)
	if err != nil {
		return util.Version{}, err
	}
	r.parsed = &v
	return v, nil
}

// Normalize recomputes the stored decomposition from the version string.
// It must run before every persist so the stored fields never drift from
// the string they were derived from.
func (r *Release) Normalize() error {
	r.parsed = nil
	v, err := r.VersionTuple()
	if err != nil {
		return err
	}
	r.Major = v.Major
	r.Minor = v.Minor
	r.Micro = v.Micro
	r.Status = v.StatusCode()
	r.Iteration = v.Iteration
	return nil
}

// IsPublished reports whether the release is visible at the given date:
// active, dated, and the date is not in the future.
func (r *Release) IsPublished(at time.Time) bool {
	return r.IsActive && r.Date != nil && !r.Date.After(at)
}

// FeatureVersion is the "major.minor" series identifier.
func (r *Release) FeatureVersion() string {
	if v, err := r.VersionTuple(); err == nil {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d.%d", r.Major, r.Minor)
}

// Series is the "major.x" line identifier.
func (r *Release) Series() string {
	if v, err := r.VersionTuple(); err == nil {
		return fmt.Sprintf("%d.x", v.Major)
	}
	return fmt.Sprintf("%d.x", r.Major)
}

// StableBranch is the VCS branch name carrying this feature series.
func (r *Release) StableBranch() string {
	return fmt.Sprintf("stable/%s.x", r.FeatureVersion())
}

// CommitPrefix is the conventional commit message prefix for backports.
func (r *Release) CommitPrefix() string {
	return fmt.Sprintf("[%s.x]", r.FeatureVersion())
}

// IsPreRelease reports whether this is an alpha, beta or release candidate.
func (r *Release) IsPreRelease() bool {
	return r.Status != "f"
}

// IsDotZero reports whether this is the first final release of its series.
func (r *Release) IsDotZero() bool {
	return r.Status == "f" && r.Micro == 0
}

// StatusDisplay returns the human readable status name.
func (r *Release) StatusDisplay() string {
	return util.StatusDisplayName(r.Status)
}

// PEPVersion renders the compact display form of the version.
func (r *Release) PEPVersion() string {
	v, err := r.VersionTuple()
	if err != nil {
		return r.Version
	}
	return v.PEP()
}

// Less orders releases by (major, minor, micro) only; pre-release status
// and iteration are deliberately excluded, see SameVersion.
func (r *Release) Less(other *Release) bool {
	if r.Major != other.Major {
		return r.Major < other.Major
	}
	if r.Minor != other.Minor {
		return r.Minor < other.Minor
	}
	return r.Micro < other.Micro
}

// SameVersion reports equality under the (major, minor, micro) relation:
// two releases in different pre-release stages of the same micro compare
// equal even though they are distinct records. The advisory aggregator
// relies on this to collapse per-branch duplicates.
func (r *Release) SameVersion(other *Release) bool {
	return r.Major == other.Major && r.Minor == other.Minor && r.Micro == other.Micro
}

// VersionKey is the hashable identity under the SameVersion relation.
type VersionKey struct {
	Major, Minor, Micro int
}

// Key returns the release's VersionKey.
func (r *Release) Key() VersionKey {
	return VersionKey{r.Major, r.Minor, r.Micro}
}

// SortLess orders by the query engine's explicit sort key
// (major, minor, micro, status); status chars a < b < c < f place finals
// last in ascending order, so descending sorts surface them first.
func (r *Release) SortLess(other *Release) bool {
	if r.Major != other.Major {
		return r.Major < other.Major
	}
	if r.Minor != other.Minor {
		return r.Minor < other.Minor
	}
	if r.Micro != other.Micro {
		return r.Micro < other.Micro
	}
	return r.Status < other.Status
}

// Clean validates publishing constraints before persistence. The product
// name parameterizes the artifact filename patterns.
func (r *Release) Clean(product string, today time.Time) error {
	if r.IsPublished(today) && r.Tarball == "" {
		return &ValidationError{
			Field:   "tarball",
			Message: "This field is required when the release is active.",
		}
	}
	if (r.Tarball != "" || r.Wheel != "") && r.Checksum == "" {
		return &ValidationError{
			Field:   "checksum",
			Message: "This field is required when an artifact has been uploaded.",
		}
	}
	if r.Tarball != "" {
		if err := r.ValidateArtifactName(r.Tarball, ".tar.gz", product); err != nil {
			return &ValidationError{Field: "tarball", Message: err.Error()}
		}
	}
	if r.Wheel != "" {
		if err := r.ValidateArtifactName(r.Wheel, "-py3-none-any.whl", product); err != nil {
			return &ValidationError{Field: "wheel", Message: err.Error()}
		}
	}
	return nil
}

// ValidateArtifactName checks an uploaded artifact filename against the
// expected "<product>-<version><suffix>" pattern. Any folder prefix is
// stripped first; the product's leading letter may be upper or lower case.
func (r *Release) ValidateArtifactName(name, suffix, product string) error {
	name = path.Base(name)
	v, err := r.VersionTuple()
	if err != nil {
		return err
	}
	lower := strings.ToLower(product)
	pattern := fmt.Sprintf("^[%s%s]%s-%s%s$",
		strings.ToUpper(lower[:1]), lower[:1], lower[1:],
		regexp.QuoteMeta(v.PEP()), regexp.QuoteMeta(suffix))
	matched, err := regexp.MatchString(pattern, name)
	if err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("Filename %s does not match pattern %s.", name, pattern)
	}
	return nil
}

// UploadToArtifact resolves the storage path for a release artifact.
// Filenames are never rewritten, only placed under the series directory.
func UploadToArtifact(r *Release, filename string) string {
	return fmt.Sprintf("releases/%s/%s", r.FeatureVersion(), path.Base(filename))
}

// UploadToChecksum resolves the storage path for the signed checksum file.
func UploadToChecksum(r *Release, product string) string {
	return fmt.Sprintf("pgp/%s-%s.checksum.txt", product, r.PEPVersion())
}
