package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Writer appends typed values to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded bytes. The slice is valid until the next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) I8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

func (w *Writer) U16LE(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) I16LE(v int16) {
	w.U16LE(uint16(v))
}

func (w *Writer) U32LE(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) I32LE(v int32) {
	w.U32LE(uint32(v))
}

func (w *Writer) U64LE(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) I64LE(v int64) {
	w.U64LE(uint64(v))
}

func (w *Writer) F32LE(v float32) {
	w.U32LE(math.Float32bits(v))
}

func (w *Writer) U16BE(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) I16BE(v int16) {
	w.U16BE(uint16(v))
}

// Raw appends b unchanged.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// StringU8 appends s with a one-byte length prefix.
func (w *Writer) StringU8(s string) error {
	if len(s) > math.MaxUint8 {
		return ErrStringTooLong
	}
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	w.U8(uint8(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

// StringU16LE appends s with a little-endian uint16 length prefix.
func (w *Writer) StringU16LE(s string) error {
	if len(s) > math.MaxUint16 {
		return ErrStringTooLong
	}
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	w.U16LE(uint16(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}
