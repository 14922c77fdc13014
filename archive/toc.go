// Package archive table of contents decoding.
package archive

import (
	"io"
	"strconv"
)

// TocEntry is a single entry in an archive's table of contents. Every object
// in the dump (schemas, tables, table data, indexes, sequence values, ...) has
// one entry.
type TocEntry struct {
	// ID identifies the entry within the archive.
	ID ID

	// HadDumper is true when the entry's data was produced by a data dumper,
	// which is the case for table data.
	HadDumper bool

	// TableOid and Oid are the PostgreSQL object identifiers of the catalog
	// table and object this entry was dumped from.
	TableOid Oid
	Oid      Oid

	// Tag is the object name, e.g. the table name for TABLE and TABLE DATA
	// entries.
	Tag string

	// Desc is the object kind, e.g. "TABLE", "TABLE DATA", "EXTENSION".
	Desc string

	// Section determines restore ordering.
	Section Section

	// Defn, DropStmt, and CopyStmt are the SQL statements to create the
	// object, drop it, and load its data.
	Defn     string
	DropStmt string
	CopyStmt string

	// Namespace, Tablespace, TableAccessMethod, and Owner describe where and
	// how the object lives.
	Namespace         string
	Tablespace        string
	TableAccessMethod string
	Owner             string

	// Dependencies lists the Oids of entries this entry depends on.
	Dependencies []Oid

	// Offset is where the entry's data block lives in the archive file.
	Offset Offset
}

// readToc reads the entry count followed by that many entries.
func readToc(r io.Reader, cfg wireConfig) ([]TocEntry, error) {
	count, err := cfg.readInt(r)
	if err != nil {
		return nil, WrapError(err, "failed to read table of contents size")
	}
	if count < 0 {
		return nil, WrapErrorf(ErrInvalidData, "invalid table of contents size %d", count)
	}

	entries := make([]TocEntry, 0, count)
	for i := int64(0); i < count; i++ {
		entry, err := parseTocEntry(r, cfg)
		if err != nil {
			return nil, WrapErrorf(err, "failed to parse table of contents entry %d", i)
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// parseTocEntry decodes one table of contents entry. The on-disk layout is a
// fixed field sequence ending in a string-encoded dependency list terminated
// by an empty string, followed by the data offset.
func parseTocEntry(r io.Reader, cfg wireConfig) (*TocEntry, error) {
	var entry TocEntry
	var err error

	if entry.ID, err = cfg.readInt(r); err != nil {
		return nil, err
	}
	if entry.ID < 0 {
		return nil, WrapErrorf(ErrInvalidData, "negative entry id %d", entry.ID)
	}
	if entry.HadDumper, err = cfg.readIntBool(r); err != nil {
		return nil, err
	}
	if entry.TableOid, err = cfg.readOid(r); err != nil {
		return nil, err
	}
	if entry.Oid, err = cfg.readOid(r); err != nil {
		return nil, err
	}
	if entry.Tag, err = cfg.readString(r); err != nil {
		return nil, err
	}
	if entry.Desc, err = cfg.readString(r); err != nil {
		return nil, err
	}

	section, err := cfg.readInt(r)
	if err != nil {
		return nil, err
	}
	if entry.Section, err = sectionFromInt(section); err != nil {
		return nil, err
	}

	if entry.Defn, err = cfg.readString(r); err != nil {
		return nil, err
	}
	if entry.DropStmt, err = cfg.readString(r); err != nil {
		return nil, err
	}
	if entry.CopyStmt, err = cfg.readString(r); err != nil {
		return nil, err
	}
	if entry.Namespace, err = cfg.readString(r); err != nil {
		return nil, err
	}
	if entry.Tablespace, err = cfg.readString(r); err != nil {
		return nil, err
	}
	if entry.TableAccessMethod, err = cfg.readString(r); err != nil {
		return nil, err
	}
	if entry.Owner, err = cfg.readString(r); err != nil {
		return nil, err
	}

	// The format stores a literal "false" here; anything else means the file
	// was written with a with-oids setting this package does not support.
	withOids, err := cfg.readStringBool(r)
	if err != nil {
		return nil, err
	}
	if withOids {
		return nil, WrapError(ErrInvalidData, "archives with oids are not supported")
	}

	for {
		dep, err := cfg.readString(r)
		if err != nil {
			return nil, err
		}
		if dep == "" {
			break
		}
		oid, err := strconv.ParseUint(dep, 10, 64)
		if err != nil {
			return nil, WrapErrorf(ErrInvalidData, "invalid dependency %q", dep)
		}
		entry.Dependencies = append(entry.Dependencies, oid)
	}

	if entry.Offset, err = cfg.readOffset(r); err != nil {
		return nil, err
	}

	return &entry, nil
}
