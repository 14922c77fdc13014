// Package archive wire codec. Custom-format archives declare their own
// integer and offset sizes in the header; everything after the size bytes is
// decoded relative to those.
package archive

import (
	"io"
	"strconv"
)

// wireConfig decodes the primitive encodings used throughout a custom-format
// archive. intSize and offsetSize are zero until the header has been read.
type wireConfig struct {
	intSize    int
	offsetSize int
}

func (c wireConfig) readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readInt reads a signed integer: one sign byte followed by intSize
// little-endian magnitude bytes.
func (c wireConfig) readInt(r io.Reader) (int64, error) {
	return readIntSized(r, c.intSize)
}

// readString reads a length-prefixed string. A length of -1 encodes the empty
// string.
func (c wireConfig) readString(r io.Reader) (string, error) {
	length, err := c.readInt(r)
	if err != nil {
		return "", err
	}
	if length == -1 {
		return "", nil
	}
	if length < 0 {
		return "", WrapErrorf(ErrInvalidData, "invalid string length %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readIntBool reads an integer and interprets any non-zero value as true.
func (c wireConfig) readIntBool(r io.Reader) (bool, error) {
	v, err := c.readInt(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// readStringBool reads a string-encoded boolean. Only the exact string "true"
// is true.
func (c wireConfig) readStringBool(r io.Reader) (bool, error) {
	v, err := c.readString(r)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// readOid reads a string-encoded object identifier.
func (c wireConfig) readOid(r io.Reader) (Oid, error) {
	v, err := c.readString(r)
	if err != nil {
		return 0, err
	}
	oid, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, WrapErrorf(ErrInvalidData, "invalid oid %q", v)
	}
	return oid, nil
}

// readOffset reads a data offset: a flag byte followed by offsetSize
// little-endian position bytes, which are only meaningful when the flag says
// the position was set.
func (c wireConfig) readOffset(r io.Reader) (Offset, error) {
	if c.offsetSize == 0 {
		return Offset{}, WrapError(ErrInvalidData, "offset size unknown")
	}

	buf := make([]byte, c.offsetSize+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Offset{}, err
	}

	switch buf[0] {
	case 0:
		return Offset{Kind: OffsetUnknown}, nil
	case 1:
		return Offset{Kind: OffsetPosNotSet}, nil
	case 2:
		var pos uint64
		for i := 0; i < c.offsetSize; i++ {
			pos |= uint64(buf[i+1]) << (i * 8)
		}
		return Offset{Kind: OffsetPosSet, Pos: pos}, nil
	case 3:
		return Offset{Kind: OffsetNoData}, nil
	default:
		return Offset{}, WrapErrorf(ErrInvalidData, "invalid offset flag %d", buf[0])
	}
}

func readIntSized(r io.Reader, intSize int) (int64, error) {
	if intSize == 0 {
		return 0, WrapError(ErrInvalidData, "integer size unknown")
	}

	buf := make([]byte, intSize+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}

	negative := buf[0] != 0
	var result int64
	for i := 0; i < intSize; i++ {
		result += int64(buf[i+1]) << (i * 8)
	}
	if negative {
		return -result, nil
	}
	return result, nil
}
