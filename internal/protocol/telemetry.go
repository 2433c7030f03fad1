package protocol

import (
	"fmt"

	"github.com/dcrubro/ftc-driver-hub/internal/wire"
)

// StringEntry is one key/value line of telemetry.
type StringEntry struct {
	Key   string
	Value string
}

// FloatEntry is one numeric telemetry reading.
type FloatEntry struct {
	Key   string
	Value float32
}

// TelemetryPacket is a batch of telemetry from the robot. An empty Tag
// means the packet carried none.
type TelemetryPacket struct {
	Timestamp  int64
	Sorted     bool
	RobotState RobotOpModeState
	Tag        string
	Strings    []StringEntry
	Floats     []FloatEntry
}

func (*TelemetryPacket) Type() PacketType { return TypeTelemetry }
func (*TelemetryPacket) packet()          {}

// Lookup returns the value of the first string entry with the given key.
func (p *TelemetryPacket) Lookup(key string) (string, bool) {
	for _, e := range p.Strings {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Encode builds the payload a robot would send. The engine never sends
// telemetry; this is used for replay and tests.
func (p *TelemetryPacket) Encode() ([]byte, error) {
	if len(p.Strings) > 255 || len(p.Floats) > 255 {
		return nil, fmt.Errorf("%w: more than 255 telemetry entries", ErrPayloadTooLarge)
	}
	w := wire.NewWriter(64)
	w.U8(uint8(TypeTelemetry))
	w.I64LE(p.Timestamp)
	w.Bool(p.Sorted)
	w.I8(int8(p.RobotState))
	if err := w.StringU8(p.Tag); err != nil {
		return nil, err
	}
	w.U8(uint8(len(p.Strings)))
	for _, e := range p.Strings {
		if err := w.StringU16LE(e.Key); err != nil {
			return nil, err
		}
		if err := w.StringU16LE(e.Value); err != nil {
			return nil, err
		}
	}
	w.U8(uint8(len(p.Floats)))
	for _, e := range p.Floats {
		if err := w.StringU16LE(e.Key); err != nil {
			return nil, err
		}
		w.F32LE(e.Value)
	}
	return w.Bytes(), nil
}

// DecodeTelemetry decodes a Telemetry payload. The leading id byte is
// skipped without checking it.
func DecodeTelemetry(payload []byte) (*TelemetryPacket, error) {
	d := newDecoder(TypeTelemetry, payload)
	d.u8("id")
	p := &TelemetryPacket{
		Timestamp:  d.i64("timestamp"),
		Sorted:     d.boolean("sorted"),
		RobotState: RobotOpModeState(d.i8("robotState")),
		Tag:        d.stringU8("tag"),
	}
	if n := int(d.u8("stringCount")); n > 0 && d.err == nil {
		p.Strings = make([]StringEntry, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			key := d.stringU16("stringKey")
			val := d.stringU16("stringValue")
			p.Strings = append(p.Strings, StringEntry{Key: key, Value: val})
		}
	}
	if n := int(d.u8("floatCount")); n > 0 && d.err == nil {
		p.Floats = make([]FloatEntry, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			key := d.stringU16("floatKey")
			val := d.f32("floatValue")
			p.Floats = append(p.Floats, FloatEntry{Key: key, Value: val})
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}
