// Package release version derivation. The released version is the tag name
// with a known prefix stripped, and must be a full semantic version.
package release

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// tagRefPrefix is the fully qualified reference prefix for tags.
	tagRefPrefix = "refs/tags/"

	// DefaultTagPrefix is stripped from tag names before version parsing.
	DefaultTagPrefix = "v"
)

// IsTagRef reports whether ref is a fully qualified tag reference. Only tag
// references trigger a release.
func IsTagRef(ref string) bool {
	return strings.HasPrefix(ref, tagRefPrefix) && len(ref) > len(tagRefPrefix)
}

// TagName returns the short tag name for a fully qualified tag reference.
// A reference without the refs/tags/ prefix is returned unchanged.
func TagName(ref string) string {
	return strings.TrimPrefix(ref, tagRefPrefix)
}

// DeriveVersion extracts the version string from a tag reference by stripping
// the refs/tags/ qualifier and then the tag prefix. A tag that does not carry
// the prefix is used as-is, mirroring shell parameter stripping.
//
// The result must be a full semantic version and is returned exactly as it
// appears in the tag name.
func DeriveVersion(ref, prefix string) (string, error) {
	if ref == "" {
		return "", WrapError(ErrNotTagRef, "empty reference")
	}
	if strings.HasPrefix(ref, "refs/") && !IsTagRef(ref) {
		return "", WrapErrorf(ErrNotTagRef, "reference %q", ref)
	}

	version := strings.TrimPrefix(TagName(ref), prefix)
	if _, err := semver.StrictNewVersion(version); err != nil {
		return "", WrapErrorf(ErrInvalidVersion, "tag %q yields %q", TagName(ref), version)
	}
	return version, nil
}
