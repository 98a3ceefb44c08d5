// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxivid parses arXiv-style paper identifiers out of free text and
// splits them into base and version parts.
package arxivid

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// pattern matches arXiv IDs anywhere in a string: "2301.07041",
// "arXiv:2301.07041", "2301.07041v2". The base and version suffix are
// captured separately.
var pattern = regexp.MustCompile(`(?:arXiv:)?(\d{4}\.\d{4,5})(v\d+)?`)

// ID is a parsed paper identifier.
type ID struct {
	// Base is the numeric portion without any version suffix
	// (e.g. "2301.07041").
	Base string

	// Version is the suffix as written, including the leading "v"
	// (e.g. "v2"). Empty when the source carried no suffix.
	Version string
}

// Parse scans s for the first arXiv identifier. The second return value is
// false when none is found.
func Parse(s string) (ID, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return ID{}, false
	}
	return ID{Base: m[1], Version: m[2]}, true
}

// String renders the identifier with its version suffix, if any.
func (id ID) String() string {
	return id.Base + id.Version
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return id.Base == ""
}

// VersionNum returns the numeric version. A missing suffix is treated as
// version 1 for comparison purposes.
func (id ID) VersionNum() int {
	return VersionNum(id.Version)
}

// VersionNum converts a version suffix ("v2") to its number. Empty or
// malformed suffixes count as version 1.
func VersionNum(version string) int {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Split separates a raw identifier string into base and version suffix.
// Inputs without a recognizable arXiv form are returned whole as the base.
func Split(raw string) (base, version string) {
	id, ok := Parse(raw)
	if !ok {
		return strings.TrimSpace(raw), ""
	}
	return id.Base, id.Version
}

// RandomToken returns a short random case token for files with no
// parseable identifier.
func RandomToken() string {
	return uuid.NewString()[:8]
}
