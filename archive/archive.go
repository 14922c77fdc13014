// Package archive top-level parsing. This file contains the Archive type and
// the header decoding logic.
package archive

import (
	"fmt"
	"io"
	"time"
)

// magic identifies a custom-format archive.
const magic = "PGDMP"

// Supported archive format version range. The format is stable enough that
// every version in between uses the same encodings, modulo the compression
// byte introduced in 1.15.
var (
	minSupportedVersion = Version{1, 10, 0}
	maxSupportedVersion = Version{1, 15, 0}
)

// Archive holds the parsed header and table of contents of a custom-format
// dump. It does not hold table data; use OpenData to stream that from the
// underlying file.
type Archive struct {
	// Version is the archive format version, not the PostgreSQL version.
	Version Version

	// CompressionMethod is how table data blocks are compressed.
	CompressionMethod CompressionMethod

	// CompressionLevel is the compression level recorded by pg_dump versions
	// before 1.15. Newer archives leave it at zero.
	CompressionLevel int64

	// CreateDate is when the dump was made, in the server's local time.
	CreateDate time.Time

	// DatabaseName is the name of the dumped database.
	DatabaseName string

	// ServerVersion is the PostgreSQL server version string.
	ServerVersion string

	// PGDumpVersion is the pg_dump version string.
	PGDumpVersion string

	// Entries is the table of contents, in file order.
	Entries []TocEntry

	cfg wireConfig
}

// Parse reads the archive header and table of contents from r.
//
// The reader must be positioned at the start of the file. Parse consumes
// exactly the header and table of contents; table data is read separately
// through OpenData, which seeks on the file handle.
func Parse(r io.Reader) (*Archive, error) {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, WrapError(err, "failed to read magic")
	}
	if string(buf) != magic {
		return nil, WrapError(ErrInvalidData, "bad magic")
	}

	var cfg wireConfig
	var version Version
	var err error
	if version.Major, err = cfg.readByte(r); err != nil {
		return nil, WrapError(err, "failed to read version")
	}
	if version.Minor, err = cfg.readByte(r); err != nil {
		return nil, WrapError(err, "failed to read version")
	}
	if version.Patch, err = cfg.readByte(r); err != nil {
		return nil, WrapError(err, "failed to read version")
	}

	if version.Compare(minSupportedVersion) < 0 || version.Compare(maxSupportedVersion) > 0 {
		return nil, WrapErrorf(ErrUnsupportedVersion, "archive version %s", version)
	}

	intSize, err := cfg.readByte(r)
	if err != nil {
		return nil, WrapError(err, "failed to read integer size")
	}
	offsetSize, err := cfg.readByte(r)
	if err != nil {
		return nil, WrapError(err, "failed to read offset size")
	}
	cfg.intSize = int(intSize)
	cfg.offsetSize = int(offsetSize)

	format, err := cfg.readByte(r)
	if err != nil {
		return nil, WrapError(err, "failed to read format byte")
	}
	if format != 1 {
		return nil, WrapErrorf(ErrInvalidData, "wrong file format %d", format)
	}

	a := &Archive{
		Version: version,
		cfg:     cfg,
	}

	if err := a.readCompression(r); err != nil {
		return nil, err
	}
	if err := a.readCreateDate(r); err != nil {
		return nil, err
	}

	if a.DatabaseName, err = cfg.readString(r); err != nil {
		return nil, WrapError(err, "failed to read database name")
	}
	if a.ServerVersion, err = cfg.readString(r); err != nil {
		return nil, WrapError(err, "failed to read server version")
	}
	if a.PGDumpVersion, err = cfg.readString(r); err != nil {
		return nil, WrapError(err, "failed to read pg_dump version")
	}

	if a.Entries, err = readToc(r, cfg); err != nil {
		return nil, err
	}

	return a, nil
}

// readCompression decodes the compression information. Archives before 1.15
// store a signed compression level where any non-zero value means zlib;
// 1.15 and later store an explicit method byte.
func (a *Archive) readCompression(r io.Reader) error {
	if a.Version.Compare(Version{1, 15, 0}) >= 0 {
		b, err := a.cfg.readByte(r)
		if err != nil {
			return WrapError(err, "failed to read compression method")
		}
		if b > uint8(CompressionZstd) {
			return WrapErrorf(ErrInvalidData, "invalid compression method %d", b)
		}
		a.CompressionMethod = CompressionMethod(b)
		return nil
	}

	level, err := a.cfg.readInt(r)
	if err != nil {
		return WrapError(err, "failed to read compression level")
	}
	a.CompressionLevel = level
	if level != 0 {
		a.CompressionMethod = CompressionGzip
	}
	return nil
}

// readCreateDate decodes the creation timestamp, stored as a broken-down
// struct tm: seconds, minutes, hours, day of month, month, years since 1900,
// and a DST flag that is ignored.
func (a *Archive) readCreateDate(r io.Reader) error {
	fields := make([]int64, 7)
	for i := range fields {
		v, err := a.cfg.readInt(r)
		if err != nil {
			return WrapError(err, "failed to read creation date")
		}
		fields[i] = v
	}

	sec, min, hour, mday, mon, year := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]
	if mon < 1 || mon > 12 || mday < 1 || mday > 31 ||
		hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 60 {
		return WrapError(ErrInvalidData, "invalid creation date")
	}

	a.CreateDate = time.Date(int(year)+1900, time.Month(mon), int(mday),
		int(hour), int(min), int(sec), 0, time.UTC)
	return nil
}

// FindEntry returns the first table of contents entry matching the given
// section, description, and tag, or nil if none matches. For a table named
// pizza the schema entry is (PreData, "TABLE", "pizza") and its data entry is
// (Data, "TABLE DATA", "pizza").
func (a *Archive) FindEntry(section Section, desc, tag string) *TocEntry {
	for i := range a.Entries {
		e := &a.Entries[i]
		if e.Section == section && e.Desc == desc && e.Tag == tag {
			return e
		}
	}
	return nil
}

// TableDataEntries returns the table of contents entries that carry table
// data, in file order.
func (a *Archive) TableDataEntries() []*TocEntry {
	var entries []*TocEntry
	for i := range a.Entries {
		e := &a.Entries[i]
		if e.Section == SectionData && e.Desc == "TABLE DATA" {
			entries = append(entries, e)
		}
	}
	return entries
}

func (a *Archive) String() string {
	return fmt.Sprintf("version=%s compression=%s", a.Version, a.CompressionMethod)
}
