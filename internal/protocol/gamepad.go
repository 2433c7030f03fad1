package protocol

import (
	"time"

	"github.com/dcrubro/ftc-driver-hub/internal/wire"
)

// GamepadPacket is one controller snapshot. The engine only ever sends the
// most recent one.
type GamepadPacket struct {
	GamepadID    int32
	Timestamp    uint64 // milliseconds
	LeftStickX   float32
	LeftStickY   float32
	RightStickX  float32
	RightStickY  float32
	LeftTrigger  float32
	RightTrigger float32
	Touch1X      float32
	Touch1Y      float32
	Touch2X      float32
	Touch2Y      float32
	Buttons      ButtonFlags
	User         uint8
	LegacyType   uint8
	GamepadType  uint8
}

// IdleGamepad returns the canonical neutral snapshot stamped at now.
func IdleGamepad(now time.Time) *GamepadPacket {
	return &GamepadPacket{
		GamepadID:   IdleGamepadID,
		Timestamp:   uint64(now.UnixMilli()),
		User:        IdleUser,
		LegacyType:  IdleLegacyType,
		GamepadType: IdleGamepadType,
	}
}

// IsIdle reports whether no stick, trigger or button is active.
func (p *GamepadPacket) IsIdle() bool {
	return p.LeftStickX == 0 && p.LeftStickY == 0 &&
		p.RightStickX == 0 && p.RightStickY == 0 &&
		p.LeftTrigger == 0 && p.RightTrigger == 0 &&
		p.Buttons == 0
}

func (*GamepadPacket) Type() PacketType { return TypeGamepad }
func (*GamepadPacket) packet()          {}

func (p *GamepadPacket) Encode() ([]byte, error) {
	w := wire.NewWriter(GamepadPayloadSize)
	w.U8(uint8(TypeGamepad))
	w.U8(gamepadMarker)
	w.I32LE(p.GamepadID)
	w.U64LE(p.Timestamp)
	for _, f := range p.axes() {
		w.F32LE(f)
	}
	w.U32LE(uint32(p.Buttons))
	w.U8(p.User)
	w.U8(p.LegacyType)
	w.U8(p.GamepadType)
	return w.Bytes(), nil
}

func (p *GamepadPacket) axes() [10]float32 {
	return [10]float32{
		p.LeftStickX, p.LeftStickY, p.RightStickX, p.RightStickY,
		p.LeftTrigger, p.RightTrigger,
		p.Touch1X, p.Touch1Y, p.Touch2X, p.Touch2Y,
	}
}

// DecodeGamepad decodes a Gamepad payload. Peers never send these; it
// exists for capture inspection.
func DecodeGamepad(payload []byte) (*GamepadPacket, error) {
	d := newDecoder(TypeGamepad, payload)
	d.echo()
	d.marker(gamepadMarker)
	p := &GamepadPacket{
		GamepadID:    d.i32("gamepadID"),
		Timestamp:    d.u64("timestamp"),
		LeftStickX:   d.f32("leftStickX"),
		LeftStickY:   d.f32("leftStickY"),
		RightStickX:  d.f32("rightStickX"),
		RightStickY:  d.f32("rightStickY"),
		LeftTrigger:  d.f32("leftTrigger"),
		RightTrigger: d.f32("rightTrigger"),
		Touch1X:      d.f32("touch1X"),
		Touch1Y:      d.f32("touch1Y"),
		Touch2X:      d.f32("touch2X"),
		Touch2Y:      d.f32("touch2Y"),
		Buttons:      ButtonFlags(d.u32("buttons")),
		User:         d.u8("user"),
		LegacyType:   d.u8("legacyType"),
		GamepadType:  d.u8("gamepadType"),
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}
