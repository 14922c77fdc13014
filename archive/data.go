// Package archive table data access. Data blocks are stored as a sequence of
// length-framed chunks; the concatenated payload is optionally compressed as a
// single stream.
package archive

import (
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// OpenData returns a reader over the decompressed data stream of a table of
// contents entry. f must be the file the archive was parsed from; OpenData
// seeks on it, so only one data stream can be consumed at a time per handle.
//
// Entries without data return ErrNoDataPresent. Large object entries return
// ErrBlobNotSupported.
func (a *Archive) OpenData(f io.ReadSeeker, e *TocEntry) (io.ReadCloser, error) {
	switch e.Offset.Kind {
	case OffsetNoData:
		return io.NopCloser(&blockReader{eof: true}), nil
	case OffsetUnknown, OffsetPosNotSet:
		return nil, WrapErrorf(ErrNoDataPresent, "entry %d (%s %q)", e.ID, e.Desc, e.Tag)
	}

	if _, err := f.Seek(int64(e.Offset.Pos), io.SeekStart); err != nil {
		return nil, WrapError(err, "failed to seek to data block")
	}

	blockType, err := a.cfg.readByte(f)
	if err != nil {
		return nil, WrapError(err, "failed to read block type")
	}
	id, err := a.cfg.readInt(f)
	if err != nil {
		return nil, WrapError(err, "failed to read block id")
	}
	if id != e.ID {
		return nil, WrapErrorf(ErrInvalidData, "data block id %d does not match entry %d", id, e.ID)
	}

	switch BlockType(blockType) {
	case BlockData:
		// fall through to decompression
	case BlockBlob:
		return nil, WrapErrorf(ErrBlobNotSupported, "entry %d (%s %q)", e.ID, e.Desc, e.Tag)
	default:
		return nil, WrapErrorf(ErrInvalidData, "invalid block type %d", blockType)
	}

	blocks := &blockReader{r: f, intSize: a.cfg.intSize}

	switch a.CompressionMethod {
	case CompressionNone:
		return io.NopCloser(blocks), nil
	case CompressionGzip:
		zr, err := zlib.NewReader(blocks)
		if err != nil {
			return nil, WrapError(err, "failed to open zlib stream")
		}
		return zr, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(blocks)), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(blocks)
		if err != nil {
			return nil, WrapError(err, "failed to open zstd stream")
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, WrapErrorf(ErrUnsupportedCompression, "%s", a.CompressionMethod)
	}
}

// blockReader reads the length-framed chunk sequence of a data block. Each
// chunk is a wire integer length followed by that many payload bytes; a zero
// length terminates the stream.
type blockReader struct {
	r         io.Reader
	intSize   int
	remaining int64
	eof       bool
}

func (b *blockReader) Read(p []byte) (int, error) {
	if b.eof {
		return 0, io.EOF
	}

	if b.remaining == 0 {
		length, err := readIntSized(b.r, b.intSize)
		if err != nil {
			return 0, err
		}
		if length <= 0 {
			b.eof = true
			return 0, io.EOF
		}
		b.remaining = length
	}

	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	if err == io.EOF && b.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}
