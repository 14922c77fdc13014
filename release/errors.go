// Package release provides sentinel errors for pipeline steps.
// All errors can be checked using errors.Is() for programmatic handling.
package release

import (
	"errors"
	"fmt"
)

// ErrNotTagRef is returned when the pipeline is invoked for a reference that
// is not a tag. Branch pushes never trigger a release.
var ErrNotTagRef = errors.New("not a tag reference")

// ErrInvalidVersion is returned when the version derived from a tag is not a
// valid semantic version.
var ErrInvalidVersion = errors.New("invalid version")

// ErrManifestInvalid is returned when the manifest cannot be parsed or fails
// validation.
var ErrManifestInvalid = errors.New("invalid manifest")

// ErrVersionMissing is returned when the manifest has no top-level version
// field to substitute.
var ErrVersionMissing = errors.New("manifest has no version field")

// ErrVersionMismatch is returned by the check step when the manifest version
// does not match the version derived from the tag.
var ErrVersionMismatch = errors.New("manifest version does not match tag")

// ErrLockMismatch is returned when the lock file digest does not match the
// manifest contents.
var ErrLockMismatch = errors.New("lock file does not match manifest")

// ErrCheckFailed is returned when an external check command exits non-zero.
var ErrCheckFailed = errors.New("check command failed")

// ErrNoChanges is returned by the commit step when nothing is staged, which
// happens when a tag is re-run against an already released manifest.
var ErrNoChanges = errors.New("no changes to commit")

// ErrTokenMissing is returned when the registry authentication token is not
// present in the environment.
var ErrTokenMissing = errors.New("registry token not set")

// ErrInvalidCommitMessage is returned when the commit message does not parse
// as a Conventional Commit.
var ErrInvalidCommitMessage = errors.New("invalid commit message")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
