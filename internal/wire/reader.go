// Package wire provides bounds-checked primitive reads and writes over a
// byte cursor.
//
// Packet payload fields are little-endian; the envelope header is
// big-endian, so both byte orders are exposed explicitly by suffix.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"
)

var (
	ErrShortBuffer   = errors.New("wire: short buffer")
	ErrInvalidUTF8   = errors.New("wire: invalid utf-8")
	ErrStringTooLong = errors.New("wire: string exceeds length prefix")
)

// Reader reads typed values from a byte slice. A failed read never moves
// the cursor.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int {
	return r.pos
}

// take returns the next n bytes and advances past them.
// The returned slice aliases the underlying buffer.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// Bool reads one byte; any non-zero value is true.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

func (r *Reader) U16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) I16LE() (int16, error) {
	v, err := r.U16LE()
	return int16(v), err
}

func (r *Reader) U32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) I32LE() (int32, error) {
	v, err := r.U32LE()
	return int32(v), err
}

func (r *Reader) U64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) I64LE() (int64, error) {
	v, err := r.U64LE()
	return int64(v), err
}

// F32LE reads an IEEE-754 single from its little-endian bit pattern.
func (r *Reader) F32LE() (float32, error) {
	v, err := r.U32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) U16BE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) I16BE() (int16, error) {
	v, err := r.U16BE()
	return int16(v), err
}

// Bytes reads exactly n bytes and returns a copy the caller may retain.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// String reads n bytes of UTF-8.
func (r *Reader) String(n int) (string, error) {
	if n < 0 || n > r.Remaining() {
		return "", ErrShortBuffer
	}
	b := r.buf[r.pos : r.pos+n]
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	r.pos += n
	return string(b), nil
}

// StringU8 reads a string prefixed by a one-byte length. On failure the
// cursor is left where it was before the prefix.
func (r *Reader) StringU8() (string, error) {
	start := r.pos
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	s, err := r.String(int(n))
	if err != nil {
		r.pos = start
		return "", err
	}
	return s, nil
}

// StringU16LE reads a string prefixed by a little-endian uint16 length.
// On failure the cursor is left where it was before the prefix.
func (r *Reader) StringU16LE() (string, error) {
	start := r.pos
	n, err := r.U16LE()
	if err != nil {
		return "", err
	}
	s, err := r.String(int(n))
	if err != nil {
		r.pos = start
		return "", err
	}
	return s, nil
}
