package protocol

import (
	"strconv"
	"time"

	"github.com/dcrubro/ftc-driver-hub/internal/wire"
)

// Packet is implemented by every decoded payload. The set of
// implementations is closed: *TimePacket, *GamepadPacket,
// *HeartbeatPacket, *CommandPacket and *TelemetryPacket.
type Packet interface {
	Type() PacketType
	// Encode returns the payload bytes, type-id echo included.
	Encode() ([]byte, error)
	packet()
}

// TimePacket carries clock information in both directions.
type TimePacket struct {
	Timestamp       uint64 // nanoseconds
	RobotState      RobotOpModeState
	SentMillis      uint64
	Received1Millis uint64
	Received2Millis uint64
	Timezone        string
}

// NewTimePacket stamps a time announcement from now.
func NewTimePacket(now time.Time, timezone string, state RobotOpModeState) *TimePacket {
	return &TimePacket{
		Timestamp:  uint64(now.UnixNano()),
		RobotState: state,
		SentMillis: uint64(now.UnixMilli()),
		Timezone:   timezone,
	}
}

func (*TimePacket) Type() PacketType { return TypeTime }
func (*TimePacket) packet()          {}

func (p *TimePacket) Encode() ([]byte, error) {
	w := wire.NewWriter(TimeFixedSize + len(p.Timezone))
	w.U8(uint8(TypeTime))
	w.U64LE(p.Timestamp)
	w.I8(int8(p.RobotState))
	w.U64LE(p.SentMillis)
	w.U64LE(p.Received1Millis)
	w.U64LE(p.Received2Millis)
	if err := w.StringU8(p.Timezone); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeTime decodes a Time payload.
func DecodeTime(payload []byte) (*TimePacket, error) {
	d := newDecoder(TypeTime, payload)
	d.echo()
	p := &TimePacket{
		Timestamp:       d.u64("timestamp"),
		RobotState:      RobotOpModeState(d.i8("robotState")),
		SentMillis:      d.u64("sentMillis"),
		Received1Millis: d.u64("received1Millis"),
		Received2Millis: d.u64("received2Millis"),
		Timezone:        d.stringU8("timezone"),
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}

// HeartbeatPacket is the keep-alive a driver station sends. It carries the
// sender's SDK build identity.
type HeartbeatPacket struct {
	PeerType      int8
	Token         int16
	SDKBuildMonth int8
	SDKBuildYear  int16
	SDKMajor      int8
	SDKMinor      int8
}

func (*HeartbeatPacket) Type() PacketType { return TypeHeartbeat }
func (*HeartbeatPacket) packet()          {}

func (p *HeartbeatPacket) Encode() ([]byte, error) {
	w := wire.NewWriter(HeartbeatPayloadSize)
	w.U8(uint8(TypeHeartbeat))
	w.U8(heartbeatMarker)
	w.I8(p.PeerType)
	w.I16LE(p.Token)
	w.I8(p.SDKBuildMonth)
	w.I16LE(p.SDKBuildYear)
	w.I8(p.SDKMajor)
	w.I8(p.SDKMinor)
	w.U8(heartbeatTerminator)
	return w.Bytes(), nil
}

// DecodeHeartbeat decodes a Heartbeat payload. The terminator byte must be
// present but its value is not checked.
func DecodeHeartbeat(payload []byte) (*HeartbeatPacket, error) {
	d := newDecoder(TypeHeartbeat, payload)
	d.echo()
	d.marker(heartbeatMarker)
	p := &HeartbeatPacket{
		PeerType:      d.i8("peerType"),
		Token:         d.i16("token"),
		SDKBuildMonth: d.i8("sdkBuildMonth"),
		SDKBuildYear:  d.i16("sdkBuildYear"),
		SDKMajor:      d.i8("sdkMajor"),
		SDKMinor:      d.i8("sdkMinor"),
	}
	d.u8("terminator")
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}

// SDKVersion returns the sender's SDK version as "major.minor".
func (p *HeartbeatPacket) SDKVersion() string {
	return strconv.Itoa(int(p.SDKMajor)) + "." + strconv.Itoa(int(p.SDKMinor))
}

// CommandPacket is a named command with an optional string argument.
// Data is only on the wire when Acknowledged is false.
type CommandPacket struct {
	Timestamp    uint64 // nanoseconds
	Acknowledged bool
	Name         string
	Data         string
}

// Ack returns the acknowledgment for c: same name and timestamp, no data.
func (c *CommandPacket) Ack() *CommandPacket {
	return &CommandPacket{Timestamp: c.Timestamp, Acknowledged: true, Name: c.Name}
}

func (*CommandPacket) Type() PacketType { return TypeCommand }
func (*CommandPacket) packet()          {}

func (p *CommandPacket) Encode() ([]byte, error) {
	w := wire.NewWriter(CommandFixedSize + len(p.Name) + len(p.Data))
	w.U8(uint8(TypeCommand))
	w.U64LE(p.Timestamp)
	w.Bool(p.Acknowledged)
	if err := w.StringU16LE(p.Name); err != nil {
		return nil, err
	}
	if !p.Acknowledged {
		if err := w.StringU16LE(p.Data); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// DecodeCommand decodes a Command payload. An unacknowledged command must
// carry its data field.
func DecodeCommand(payload []byte) (*CommandPacket, error) {
	d := newDecoder(TypeCommand, payload)
	d.echo()
	p := &CommandPacket{
		Timestamp:    d.u64("timestamp"),
		Acknowledged: d.boolean("acknowledged"),
		Name:         d.stringU16("name"),
	}
	if !p.Acknowledged {
		p.Data = d.stringU16("data")
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}
