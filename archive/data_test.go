package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWireInt appends a wire-format integer: sign byte plus little-endian
// magnitude bytes.
func writeWireInt(buf *bytes.Buffer, intSize int, v int64) {
	if v < 0 {
		buf.WriteByte(1)
		v = -v
	} else {
		buf.WriteByte(0)
	}
	for i := 0; i < intSize; i++ {
		buf.WriteByte(byte(v >> (i * 8)))
	}
}

// frameBlocks splits payload into length-framed chunks followed by the
// zero-length terminator.
func frameBlocks(t *testing.T, intSize int, payload []byte, chunkSize int) []byte {
	t.Helper()
	var buf bytes.Buffer
	for len(payload) > 0 {
		n := chunkSize
		if n > len(payload) {
			n = len(payload)
		}
		writeWireInt(&buf, intSize, int64(n))
		buf.Write(payload[:n])
		payload = payload[n:]
	}
	writeWireInt(&buf, intSize, 0)
	return buf.Bytes()
}

func TestBlockReader(t *testing.T) {
	payload := []byte("1\tThe Classic\n2\tAll Cheese\n3\tVeggie\n")

	tests := []struct {
		name      string
		chunkSize int
	}{
		{name: "single block", chunkSize: len("1\tThe Classic\n2\tAll Cheese\n3\tVeggie\n")},
		{name: "small blocks", chunkSize: 5},
		{name: "one byte blocks", chunkSize: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			framed := frameBlocks(t, 4, payload, tt.chunkSize)
			br := &blockReader{r: bytes.NewReader(framed), intSize: 4}
			got, err := io.ReadAll(br)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestBlockReaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	writeWireInt(&buf, 4, 100)
	buf.WriteString("short")

	br := &blockReader{r: bytes.NewReader(buf.Bytes()), intSize: 4}
	_, err := io.ReadAll(br)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// buildDataBlock constructs an archive file region containing a data block for
// the given entry id at a fixed offset, and returns the file bytes and entry.
func buildDataBlock(t *testing.T, blockType BlockType, id int64, framed []byte) (*bytes.Reader, *TocEntry) {
	t.Helper()
	var file bytes.Buffer
	file.WriteString("padding-before-data-block")
	pos := uint64(file.Len())

	file.WriteByte(byte(blockType))
	writeWireInt(&file, 4, id)
	file.Write(framed)

	entry := &TocEntry{
		ID:     id,
		Tag:    "pizza",
		Desc:   "TABLE DATA",
		Offset: Offset{Kind: OffsetPosSet, Pos: pos},
	}
	return bytes.NewReader(file.Bytes()), entry
}

func TestOpenData(t *testing.T) {
	payload := []byte("1\tThe Classic\n2\tAll Cheese\n3\tVeggie\n4\tThe Everything\n5\tVegan\n\\.\n\n\n")

	compress := map[CompressionMethod]func(t *testing.T, payload []byte) []byte{
		CompressionNone: func(t *testing.T, payload []byte) []byte {
			return payload
		},
		CompressionGzip: func(t *testing.T, payload []byte) []byte {
			var buf bytes.Buffer
			w := zlib.NewWriter(&buf)
			_, err := w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		CompressionLZ4: func(t *testing.T, payload []byte) []byte {
			var buf bytes.Buffer
			w := lz4.NewWriter(&buf)
			_, err := w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		CompressionZstd: func(t *testing.T, payload []byte) []byte {
			var buf bytes.Buffer
			w, err := zstd.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
	}

	for method, compressFn := range compress {
		t.Run(method.String(), func(t *testing.T) {
			framed := frameBlocks(t, 4, compressFn(t, payload), 16)
			file, entry := buildDataBlock(t, BlockData, 0x118a, framed)

			a := &Archive{
				CompressionMethod: method,
				cfg:               wireConfig{intSize: 4, offsetSize: 8},
			}
			data, err := a.OpenData(file, entry)
			require.NoError(t, err)
			defer data.Close()

			got, err := io.ReadAll(data)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestOpenDataErrors(t *testing.T) {
	a := &Archive{cfg: wireConfig{intSize: 4, offsetSize: 8}}

	t.Run("no data offset yields empty stream", func(t *testing.T) {
		entry := &TocEntry{Offset: Offset{Kind: OffsetNoData}}
		data, err := a.OpenData(bytes.NewReader(nil), entry)
		require.NoError(t, err)
		got, err := io.ReadAll(data)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("position not set", func(t *testing.T) {
		entry := &TocEntry{Offset: Offset{Kind: OffsetPosNotSet}}
		_, err := a.OpenData(bytes.NewReader(nil), entry)
		assert.ErrorIs(t, err, ErrNoDataPresent)
	})

	t.Run("unknown position", func(t *testing.T) {
		entry := &TocEntry{Offset: Offset{Kind: OffsetUnknown}}
		_, err := a.OpenData(bytes.NewReader(nil), entry)
		assert.ErrorIs(t, err, ErrNoDataPresent)
	})

	t.Run("blob block", func(t *testing.T) {
		file, entry := buildDataBlock(t, BlockBlob, 7, frameBlocks(t, 4, []byte("blob"), 4))
		_, err := a.OpenData(file, entry)
		assert.ErrorIs(t, err, ErrBlobNotSupported)
	})

	t.Run("block id mismatch", func(t *testing.T) {
		file, entry := buildDataBlock(t, BlockData, 7, frameBlocks(t, 4, []byte("data"), 4))
		entry.ID = 8
		_, err := a.OpenData(file, entry)
		assert.ErrorIs(t, err, ErrInvalidData)
	})
}
