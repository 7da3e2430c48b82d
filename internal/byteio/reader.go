// Package byteio provides bounds-checked primitive reads over a borrowed byte
// slice, in the style of a streaming binary-format reader: every read either
// succeeds or returns a ShortReadError without mutating the reader's
// position, so callers can probe a format and bail out cleanly.
package byteio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ShortReadError is returned when a requested read would run past the end of
// the underlying buffer.
type ShortReadError struct {
	Needed    int
	Available int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read: needed %d bytes, %d available", e.Needed, e.Available)
}

// Reader reads little- or big-endian primitives from a borrowed byte slice.
// It never copies the backing array and never retains it past the lifetime
// of the caller's slice.
type Reader struct {
	buf []byte
	pos int
}

// New wraps buf for sequential reads starting at offset 0.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Seek repositions the reader to an absolute offset. It does not validate
// the offset against the buffer length; the next read will fail cleanly if
// it does not fit.
func (r *Reader) Seek(offset int) { r.pos = offset }

func (r *Reader) require(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return &ShortReadError{Needed: n, Available: r.Len()}
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 reads one signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16LE reads a little-endian uint16.
func (r *Reader) U16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U16BE reads a big-endian uint16.
func (r *Reader) U16BE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// I16LE reads a little-endian int16.
func (r *Reader) I16LE() (int16, error) {
	v, err := r.U16LE()
	return int16(v), err
}

// U32LE reads a little-endian uint32.
func (r *Reader) U32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U32BE reads a big-endian uint32.
func (r *Reader) U32BE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// I32LE reads a little-endian int32.
func (r *Reader) I32LE() (int32, error) {
	v, err := r.U32LE()
	return int32(v), err
}

// U64LE reads a little-endian uint64.
func (r *Reader) U64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// F32LE reads a little-endian IEEE-754 float32.
func (r *Reader) F32LE() (float32, error) {
	v, err := r.U32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64LE reads a little-endian IEEE-754 float64.
func (r *Reader) F64LE() (float64, error) {
	v, err := r.U64LE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// FixedASCII reads an n-byte window, strips trailing NUL bytes, and trims
// ASCII whitespace, returning the result as a string. This is the common
// fixed-width string field found in CHN/PCF/GR13x headers.
func (r *Reader) FixedASCII(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return trimFixed(b), nil
}

func trimFixed(b []byte) string {
	if i := indexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}


