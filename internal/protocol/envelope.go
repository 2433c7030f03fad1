package protocol

import (
	"encoding/binary"
	"fmt"
)

// Envelope is the outer frame of every datagram.
type Envelope struct {
	Type    PacketType
	Seq     int16
	HasSeq  bool
	Payload []byte
}

// EncodeEnvelope frames payload. seq is ignored for heartbeats, which never
// carry one.
//
// Wire format: [1B type][2B payload length BE][2B seq BE][payload]
func EncodeEnvelope(t PacketType, seq int16, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	size := EnvelopeMinSize + len(payload)
	if t.Sequenced() {
		size += SeqSize
	}
	buf := make([]byte, 0, size)
	buf = append(buf, byte(t))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(payload)))
	if t.Sequenced() {
		buf = binary.BigEndian.AppendUint16(buf, uint16(seq))
	}
	return append(buf, payload...), nil
}

// Encode frames e.Payload using e.Type and e.Seq.
func (e Envelope) Encode() ([]byte, error) {
	return EncodeEnvelope(e.Type, e.Seq, e.Payload)
}

// DecodeEnvelope parses the frame at the start of b. Bytes past the
// declared payload length are ignored. The returned payload aliases b.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) < EnvelopeMinSize {
		return Envelope{}, &DecodeError{Field: "header", Err: ErrTruncated}
	}
	env := Envelope{Type: PacketType(b[0])}
	n := int(binary.BigEndian.Uint16(b[1:3]))
	rest := b[EnvelopeMinSize:]
	if env.Type.Sequenced() {
		if len(rest) < SeqSize {
			return Envelope{}, &DecodeError{Type: env.Type, Field: "seq", Err: ErrTruncated}
		}
		env.Seq = int16(binary.BigEndian.Uint16(rest[:SeqSize]))
		env.HasSeq = true
		rest = rest[SeqSize:]
	}
	if len(rest) < n {
		return Envelope{}, &DecodeError{Type: env.Type, Field: "payload", Err: ErrTruncated}
	}
	env.Payload = rest[:n:n]
	return env, nil
}

// Frame encodes p and wraps it in an envelope.
func Frame(p Packet, seq int16) ([]byte, error) {
	payload, err := p.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Type(), err)
	}
	return EncodeEnvelope(p.Type(), seq, payload)
}
