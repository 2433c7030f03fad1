package wire

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestLittleEndianRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.U8(0xAB)
	w.I8(-5)
	w.Bool(true)
	w.U16LE(0x1234)
	w.I16LE(-2)
	w.U32LE(0xDEADBEEF)
	w.I32LE(-100000)
	w.U64LE(math.MaxUint64 - 1)
	w.I64LE(math.MinInt64)
	w.F32LE(-1.5)

	r := NewReader(w.Bytes())
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8 = %d, %v", v, err)
	}
	if v, err := r.I8(); err != nil || v != -5 {
		t.Fatalf("I8 = %d, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("Bool = %v, %v", v, err)
	}
	if v, err := r.U16LE(); err != nil || v != 0x1234 {
		t.Fatalf("U16LE = %#x, %v", v, err)
	}
	if v, err := r.I16LE(); err != nil || v != -2 {
		t.Fatalf("I16LE = %d, %v", v, err)
	}
	if v, err := r.U32LE(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32LE = %#x, %v", v, err)
	}
	if v, err := r.I32LE(); err != nil || v != -100000 {
		t.Fatalf("I32LE = %d, %v", v, err)
	}
	if v, err := r.U64LE(); err != nil || v != math.MaxUint64-1 {
		t.Fatalf("U64LE = %d, %v", v, err)
	}
	if v, err := r.I64LE(); err != nil || v != math.MinInt64 {
		t.Fatalf("I64LE = %d, %v", v, err)
	}
	if v, err := r.F32LE(); err != nil || v != -1.5 {
		t.Fatalf("F32LE = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", r.Remaining())
	}
}

func TestByteOrder(t *testing.T) {
	w := NewWriter(8)
	w.U16LE(0x0102)
	w.U16BE(0x0102)
	w.I16BE(-1)
	want := []byte{0x02, 0x01, 0x01, 0x02, 0xFF, 0xFF}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("bytes = % x, want % x", w.Bytes(), want)
	}

	r := NewReader(want[2:])
	if v, _ := r.U16BE(); v != 0x0102 {
		t.Fatalf("U16BE = %#x", v)
	}
	if v, _ := r.I16BE(); v != -1 {
		t.Fatalf("I16BE = %d", v)
	}
}

func TestShortReadDoesNotMoveCursor(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.U8(); err != nil {
		t.Fatal(err)
	}

	reads := map[string]func() error{
		"U32LE": func() error { _, err := r.U32LE(); return err },
		"U64LE": func() error { _, err := r.U64LE(); return err },
		"F32LE": func() error { _, err := r.F32LE(); return err },
		"Bytes": func() error { _, err := r.Bytes(3); return err },
		"Neg":   func() error { _, err := r.Bytes(-1); return err },
	}
	for name, read := range reads {
		if err := read(); !errors.Is(err, ErrShortBuffer) {
			t.Fatalf("%s: err = %v, want ErrShortBuffer", name, err)
		}
		if r.Pos() != 1 {
			t.Fatalf("%s: cursor moved to %d", name, r.Pos())
		}
	}

	if v, err := r.U16LE(); err != nil || v != 0x0302 {
		t.Fatalf("U16LE after failures = %#x, %v", v, err)
	}
}

func TestLengthPrefixedStrings(t *testing.T) {
	w := NewWriter(32)
	if err := w.StringU8("Europe/Ljubljana"); err != nil {
		t.Fatal(err)
	}
	if err := w.StringU16LE("CMD_INIT_OP_MODE"); err != nil {
		t.Fatal(err)
	}
	if err := w.StringU16LE(""); err != nil {
		t.Fatal(err)
	}

	r := NewReader(w.Bytes())
	if s, err := r.StringU8(); err != nil || s != "Europe/Ljubljana" {
		t.Fatalf("StringU8 = %q, %v", s, err)
	}
	if s, err := r.StringU16LE(); err != nil || s != "CMD_INIT_OP_MODE" {
		t.Fatalf("StringU16LE = %q, %v", s, err)
	}
	if s, err := r.StringU16LE(); err != nil || s != "" {
		t.Fatalf("empty StringU16LE = %q, %v", s, err)
	}
}

func TestTruncatedStringRestoresCursor(t *testing.T) {
	// Declared length 10, only 3 bytes follow.
	r := NewReader([]byte{0x0A, 0x00, 'a', 'b', 'c'})
	if _, err := r.StringU16LE(); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
	if r.Pos() != 0 {
		t.Fatalf("cursor = %d, want 0", r.Pos())
	}
}

func TestInvalidUTF8(t *testing.T) {
	r := NewReader([]byte{0x02, 0xC3, 0x28})
	if _, err := r.StringU8(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}
	if r.Pos() != 0 {
		t.Fatalf("cursor = %d, want 0", r.Pos())
	}

	w := NewWriter(4)
	if err := w.StringU8(string([]byte{0xFF})); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("writer err = %v, want ErrInvalidUTF8", err)
	}
	if w.Len() != 0 {
		t.Fatalf("writer appended %d bytes on failure", w.Len())
	}
}

func TestStringTooLong(t *testing.T) {
	w := NewWriter(0)
	if err := w.StringU8(strings.Repeat("x", 256)); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("StringU8 err = %v", err)
	}
	if err := w.StringU16LE(strings.Repeat("x", 65536)); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("StringU16LE err = %v", err)
	}
	if err := w.StringU8(strings.Repeat("x", 255)); err != nil {
		t.Fatalf("255-byte string: %v", err)
	}
}

func TestBytesReturnsCopy(t *testing.T) {
	src := []byte{1, 2, 3}
	r := NewReader(src)
	b, err := r.Bytes(3)
	if err != nil {
		t.Fatal(err)
	}
	src[0] = 9
	if b[0] != 1 {
		t.Fatal("Bytes aliases the source buffer")
	}
}
