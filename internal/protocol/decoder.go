package protocol

import "github.com/dcrubro/ftc-driver-hub/internal/wire"

// decoder wraps a wire.Reader and keeps the first failure. Once an error is
// recorded every later read returns the zero value, so codecs can read a
// whole payload and check err once at the end.
type decoder struct {
	r   *wire.Reader
	typ PacketType
	err error
}

func newDecoder(typ PacketType, payload []byte) *decoder {
	return &decoder{r: wire.NewReader(payload), typ: typ}
}

func (d *decoder) fail(field string, err error) {
	if d.err == nil {
		d.err = &DecodeError{Type: d.typ, Field: field, Err: err}
	}
}

// echo consumes the leading type-id byte and checks it against the
// expected packet type.
func (d *decoder) echo() {
	id := d.u8("id")
	if d.err == nil && PacketType(id) != d.typ {
		d.fail("id", ErrTypeMismatch)
	}
}

// marker consumes one byte that must equal want.
func (d *decoder) marker(want uint8) {
	v := d.u8("marker")
	if d.err == nil && v != want {
		d.fail("marker", ErrBadMarker)
	}
}

func (d *decoder) u8(field string) uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.U8()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) i8(field string) int8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.I8()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) boolean(field string) bool {
	if d.err != nil {
		return false
	}
	v, err := d.r.Bool()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) i16(field string) int16 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.I16LE()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) u32(field string) uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.U32LE()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) i32(field string) int32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.I32LE()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) u64(field string) uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.U64LE()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) i64(field string) int64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.I64LE()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) f32(field string) float32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.F32LE()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) stringU8(field string) string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.StringU8()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) stringU16(field string) string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.StringU16LE()
	if err != nil {
		d.fail(field, err)
	}
	return v
}
