// Package archive provides the core types shared by the header, table of
// contents, and data readers.
package archive

import "fmt"

// Version is a pg_dump archive format version (not a PostgreSQL server
// version). The format version determines how the rest of the file is encoded.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint8
}

// Compare returns -1, 0, or 1 depending on whether v is older than, equal to,
// or newer than other.
func (v Version) Compare(other Version) int {
	a := [3]uint8{v.Major, v.Minor, v.Patch}
	b := [3]uint8{other.Major, other.Minor, other.Patch}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Oid is a PostgreSQL object identifier.
type Oid = uint64

// ID identifies a table of contents entry within an archive.
type ID = int64

// OffsetKind describes what an Offset value means.
type OffsetKind uint8

const (
	// OffsetUnknown means the dump process did not record an offset.
	OffsetUnknown OffsetKind = iota
	// OffsetPosNotSet means the entry has a data slot, but its position was
	// never written.
	OffsetPosNotSet
	// OffsetPosSet means Offset.Pos holds the file position of the entry's
	// data block.
	OffsetPosSet
	// OffsetNoData means the entry has no data attached.
	OffsetNoData
)

// Offset is the location of a table of contents entry's data within the
// archive file.
type Offset struct {
	Kind OffsetKind
	Pos  uint64
}

func (o Offset) String() string {
	switch o.Kind {
	case OffsetPosSet:
		return fmt.Sprintf("@%d", o.Pos)
	case OffsetPosNotSet:
		return "not set"
	case OffsetNoData:
		return "no data"
	default:
		return "unknown"
	}
}

// BlockType identifies the kind of data block found at an entry's offset.
type BlockType uint8

const (
	// BlockData is a table data block.
	BlockData BlockType = 1
	// BlockBlob is a large object block. Reading blobs is not supported.
	BlockBlob BlockType = 3
)

// CompressionMethod is the compression applied to table data blocks.
type CompressionMethod uint8

const (
	// CompressionNone means data is stored uncompressed.
	CompressionNone CompressionMethod = 0
	// CompressionGzip means data is compressed with zlib deflate.
	CompressionGzip CompressionMethod = 1
	// CompressionLZ4 means data is compressed with LZ4 frames.
	CompressionLZ4 CompressionMethod = 2
	// CompressionZstd means data is compressed with Zstandard.
	CompressionZstd CompressionMethod = 3
)

func (c CompressionMethod) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Section determines the order in which table of contents entries are
// processed during a restore: PreData, then Data, then PostData.
type Section uint8

const (
	// SectionNone is used for entries that neither modify the schema nor add
	// data.
	SectionNone Section = 1
	// SectionPreData marks entries processed before table data is loaded,
	// such as schema and table creation.
	SectionPreData Section = 2
	// SectionData marks entries that load data into tables.
	SectionData Section = 3
	// SectionPostData marks entries processed after table data is loaded,
	// such as sequence values and index creation.
	SectionPostData Section = 4
)

func (s Section) String() string {
	switch s {
	case SectionNone:
		return "None"
	case SectionPreData:
		return "PreData"
	case SectionData:
		return "Data"
	case SectionPostData:
		return "PostData"
	default:
		return fmt.Sprintf("section(%d)", uint8(s))
	}
}

// sectionFromInt converts a wire value into a Section.
func sectionFromInt(v int64) (Section, error) {
	s := Section(v)
	switch s {
	case SectionNone, SectionPreData, SectionData, SectionPostData:
		return s, nil
	default:
		return 0, WrapErrorf(ErrInvalidData, "invalid section %d", v)
	}
}
