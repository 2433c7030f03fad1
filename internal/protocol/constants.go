package protocol

// DefaultPort is the UDP port the robot controller listens on.
const DefaultPort = 20884

// Envelope header: [1B type][2B payload length BE][2B sequence BE, omitted for heartbeat]
const (
	EnvelopeMinSize = 3
	SeqSize         = 2
	MaxPayloadSize  = 65535
)

// PacketType identifies the payload carried by an envelope.
type PacketType uint8

const (
	TypeTime      PacketType = 0x01
	TypeGamepad   PacketType = 0x02
	TypeHeartbeat PacketType = 0x03
	TypeCommand   PacketType = 0x04
	TypeTelemetry PacketType = 0x05
)

func (t PacketType) String() string {
	switch t {
	case TypeTime:
		return "time"
	case TypeGamepad:
		return "gamepad"
	case TypeHeartbeat:
		return "heartbeat"
	case TypeCommand:
		return "command"
	case TypeTelemetry:
		return "telemetry"
	default:
		return "unknown"
	}
}

// Known reports whether t is one of the defined packet types.
func (t PacketType) Known() bool {
	return t >= TypeTime && t <= TypeTelemetry
}

// Sequenced reports whether envelopes of this type carry a sequence number.
func (t PacketType) Sequenced() bool {
	return t != TypeHeartbeat
}

// Marker bytes following the type-id echo.
const (
	heartbeatMarker     = 124
	heartbeatTerminator = 0
	gamepadMarker       = 5
)

// Fixed payload sizes, type-id echo included.
const (
	HeartbeatPayloadSize = 11
	GamepadPayloadSize   = 61
	TimeFixedSize        = 35 // + timezone bytes
	CommandFixedSize     = 12 // + name, and data length and bytes when unacknowledged
)

// Heartbeat identity sent by a driver station.
const (
	PeerTypeDriverStation int8  = 1
	DefaultHeartbeatToken int16 = 10003
)

// Canonical idle gamepad identity.
const (
	IdleGamepadID   int32 = 2002
	IdleUser        uint8 = 1
	IdleLegacyType  uint8 = 3
	IdleGamepadType uint8 = 3
)

// Direction says which way a datagram travelled.
type Direction uint8

const (
	Outbound Direction = iota
	Inbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "in"
	}
	return "out"
}
