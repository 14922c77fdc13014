// Package archive provides sentinel errors for archive processing.
// All errors can be checked using errors.Is() for programmatic handling.
package archive

import (
	"errors"
	"fmt"
)

// ErrInvalidData is returned when the archive contains data that does not
// match the custom format. This should only happen when the archive is
// corrupted.
var ErrInvalidData = errors.New("invalid data")

// ErrNoDataPresent is returned when reading the data for a table of contents
// entry that has no data attached.
var ErrNoDataPresent = errors.New("no data present")

// ErrBlobNotSupported is returned when attempting to read blob data, which
// this package does not support.
var ErrBlobNotSupported = errors.New("blob data is not supported")

// ErrUnsupportedVersion is returned when the archive was made by a pg_dump
// version outside the supported format version range.
var ErrUnsupportedVersion = errors.New("unsupported archive version")

// ErrUnsupportedCompression is returned when table data uses a compression
// method this package cannot decompress.
var ErrUnsupportedCompression = errors.New("unsupported compression method")

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
