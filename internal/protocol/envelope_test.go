package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  PacketType
		seq  int16
	}{
		{"time", TypeTime, 1000},
		{"command negative seq", TypeCommand, -2},
		{"gamepad max seq", TypeGamepad, 32767},
		{"telemetry", TypeTelemetry, 0},
	}
	payload := []byte{1, 2, 3, 4, 5}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeEnvelope(tt.typ, tt.seq, payload)
			if err != nil {
				t.Fatal(err)
			}
			if len(raw) != EnvelopeMinSize+SeqSize+len(payload) {
				t.Fatalf("frame length = %d", len(raw))
			}
			env, err := DecodeEnvelope(raw)
			if err != nil {
				t.Fatal(err)
			}
			if env.Type != tt.typ || env.Seq != tt.seq || !env.HasSeq {
				t.Fatalf("got %+v", env)
			}
			if !bytes.Equal(env.Payload, payload) {
				t.Fatalf("payload = % x", env.Payload)
			}
		})
	}
}

func TestEnvelopeHeaderLayout(t *testing.T) {
	raw, err := EncodeEnvelope(TypeCommand, 0x0102, make([]byte, 0x0304))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw[:5], []byte{0x04, 0x03, 0x04, 0x01, 0x02}) {
		t.Fatalf("header = % x", raw[:5])
	}
}

func TestHeartbeatEnvelopeHasNoSeq(t *testing.T) {
	payload, _ := (&HeartbeatPacket{}).Encode()
	raw, err := EncodeEnvelope(TypeHeartbeat, 1234, payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != EnvelopeMinSize+len(payload) {
		t.Fatalf("heartbeat frame length = %d, want %d", len(raw), EnvelopeMinSize+len(payload))
	}
	if !bytes.Equal(raw[EnvelopeMinSize:], payload) {
		t.Fatal("payload does not follow the length field")
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatal(err)
	}
	if env.HasSeq || env.Seq != 0 {
		t.Fatalf("heartbeat envelope decoded with seq: %+v", env)
	}
}

func TestEnvelopeTooLarge(t *testing.T) {
	_, err := EncodeEnvelope(TypeTelemetry, 1, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := EncodeEnvelope(TypeTelemetry, 1, make([]byte, MaxPayloadSize)); err != nil {
		t.Fatalf("max payload rejected: %v", err)
	}
}

func TestEnvelopeTruncated(t *testing.T) {
	raw, _ := EncodeEnvelope(TypeCommand, 5, []byte("hello"))
	for cut := 0; cut < len(raw); cut++ {
		_, err := DecodeEnvelope(raw[:cut])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("cut %d: expected ErrTruncated, got %v", cut, err)
		}
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("cut %d: error does not match ErrDecode", cut)
		}
	}
}

func TestEnvelopeIgnoresTrailingBytes(t *testing.T) {
	raw, _ := EncodeEnvelope(TypeTime, 9, []byte{0xaa})
	raw = append(raw, 0xde, 0xad)
	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(env.Payload, []byte{0xaa}) {
		t.Fatalf("payload = % x", env.Payload)
	}
}

func TestEnvelopeEncodeMethod(t *testing.T) {
	env := Envelope{Type: TypeGamepad, Seq: -1, Payload: []byte{9}}
	raw, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0x02, 0x00, 0x01, 0xff, 0xff, 0x09}) {
		t.Fatalf("frame = % x", raw)
	}
}
