// Package util provides the version grammar parser and formatters plus
// small helpers shared across the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Release status kinds, normalized long form.
const (
	StatusAlpha = "alpha"
	StatusBeta  = "beta"
	StatusRC    = "rc"
	StatusFinal = "final"
)

// ErrMalformedVersion is returned when a version string does not match the
// supported grammar.
var ErrMalformedVersion = errors.New("malformed version")

// statusCodes maps the normalized kind to its stored single-character code.
var statusCodes = map[string]string{
	StatusAlpha: "a",
	StatusBeta:  "b",
	StatusRC:    "c",
	StatusFinal: "f",
}

// statusFromCode is the inverse of statusCodes.
var statusFromCode = map[string]string{
	"a": StatusAlpha,
	"b": StatusBeta,
	"c": StatusRC,
	"f": StatusFinal,
}

// statusDisplay maps a status code to its human readable name.
var statusDisplay = map[string]string{
	"a": "alpha",
	"b": "beta",
	"c": "release candidate",
	"f": "final",
}

// kindAbbreviations normalizes the short kind tokens found in legacy
// version strings.
var kindAbbreviations = map[string]string{
	"a": StatusAlpha,
	"b": StatusBeta,
	"c": StatusRC,
}

// pepSuffixes are the compact suffixes used in PEP-style short forms.
var pepSuffixes = map[string]string{
	StatusAlpha: "a",
	StatusBeta:  "b",
	StatusRC:    "rc",
}

// Version is the normalized 5-tuple decomposition of a release version
// string: major, minor, micro, pre-release kind, pre-release iteration.
type Version struct {
	Major     int
	Minor     int
	Micro     int
	Status    string // alpha, beta, rc or final
	Iteration int    // pre-release sequence number, 0 for final
}

// versionToken is one numeric or alphabetic run from a loose version string.
type versionToken struct {
	num   int
	isNum bool
	text  string
}

// looseTokens splits a version string into numeric and alphabetic runs,
// ignoring dots. "5.2a1" yields [5 2 a 1].
func looseTokens(s string) []versionToken {
	var tokens []versionToken
	i := 0
	for i < len(s) {
		c := rune(s[i])
		switch {
		case unicode.IsDigit(c):
			j := i
			for j < len(s) && unicode.IsDigit(rune(s[j])) {
				j++
			}
			n, _ := strconv.Atoi(s[i:j])
			tokens = append(tokens, versionToken{num: n, isNum: true})
			i = j
		case unicode.IsLetter(c):
			j := i
			for j < len(s) && unicode.IsLetter(rune(s[j])) {
				j++
			}
			tokens = append(tokens, versionToken{text: strings.ToLower(s[i:j])})
			i = j
		default:
			// separators carry no information
			i++
		}
	}
	return tokens
}

// ParseVersion converts a free-form version string such as "5.2", "5.2.1",
// "5.2a1" or "5.2rc3" into its normalized 5-tuple. Separators "-" and "_"
// are stripped first. The parser is idempotent on already-normalized input
// and returns ErrMalformedVersion when the kind token is not one of
// alpha/beta/rc/final or their a/b/c abbreviations.
func ParseVersion(s string) (Version, error) {
	cleaned := strings.NewReplacer("-", "", "_", "").Replace(s)
	tokens := looseTokens(cleaned)

	if len(tokens) < 2 || !tokens[0].isNum || !tokens[1].isNum {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}

	// Normalize to exactly (major, minor, micro, kind, iteration).
	if len(tokens) == 2 {
		tokens = append(tokens, versionToken{num: 0, isNum: true})
	}
	if !tokens[2].isNum {
		rest := append([]versionToken{{num: 0, isNum: true}}, tokens[2:]...)
		tokens = append(tokens[:2:2], rest...)
	}
	if len(tokens) == 3 {
		tokens = append(tokens, versionToken{text: StatusFinal})
	}
	if tokens[3].isNum {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}
	kind := tokens[3].text
	if kind != StatusAlpha && kind != StatusBeta && kind != StatusRC && kind != StatusFinal {
		mapped, ok := kindAbbreviations[kind]
		if !ok {
			return Version{}, fmt.Errorf("%w: %q has unknown kind %q", ErrMalformedVersion, s, kind)
		}
		kind = mapped
	}
	if len(tokens) == 4 {
		tokens = append(tokens, versionToken{num: 0, isNum: true})
	}
	if len(tokens) > 5 || !tokens[4].isNum {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}

	v := Version{
		Major:     tokens[0].num,
		Minor:     tokens[1].num,
		Micro:     tokens[2].num,
		Status:    kind,
		Iteration: tokens[4].num,
	}

	// The short form must be a valid PEP version, otherwise the input was
	// something the grammar cannot represent.
	if _, err := pep440.Parse(v.PEP()); err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrMalformedVersion, s, err)
	}

	return v, nil
}

// PEP renders the compact display form: "5.2", "5.2.1", "5.2a1", "5.2rc3".
// Micro is omitted when zero.
func (v Version) PEP() string {
	main := fmt.Sprintf("%d.%d", v.Major, v.Minor)
	if v.Micro != 0 {
		main = fmt.Sprintf("%s.%d", main, v.Micro)
	}
	if v.Status != StatusFinal {
		main += pepSuffixes[v.Status] + strconv.Itoa(v.Iteration)
	}
	return main
}

// Full renders the always-dotted form used in file and directory names:
// "5.2.0", "5.2.0a1", "5.2.1".
func (v Version) Full() string {
	main := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
	if v.Status != StatusFinal {
		main += pepSuffixes[v.Status] + strconv.Itoa(v.Iteration)
	}
	return main
}

// StatusCode returns the stored single-character status code.
func (v Version) StatusCode() string {
	return statusCodes[v.Status]
}

// StatusFromCode expands a stored status code to its normalized kind.
// Unknown codes return an empty string.
func StatusFromCode(code string) string {
	return statusFromCode[code]
}

// StatusDisplayName returns the human readable name for a status code,
// e.g. "release candidate" for "c".
func StatusDisplayName(code string) string {
	return statusDisplay[code]
}
