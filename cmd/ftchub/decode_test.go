package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

func plainPrinter(out *bytes.Buffer) *pp.PrettyPrinter {
	p := pp.New()
	p.SetOutput(out)
	p.SetColoringEnabled(false)
	return p
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"0a0b", []byte{0x0a, 0x0b}},
		{"0x0A 0B", []byte{0x0a, 0x0b}},
		{"0a:0b:0c", []byte{0x0a, 0x0b, 0x0c}},
	}
	for _, tt := range tests {
		got, err := parseHex(tt.in)
		if err != nil || !bytes.Equal(got, tt.want) {
			t.Fatalf("parseHex(%q) = %x, %v", tt.in, got, err)
		}
	}
	if _, err := parseHex("zz"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
}

func TestDecodeOne(t *testing.T) {
	raw, err := protocol.Frame(&protocol.CommandPacket{Name: protocol.CmdRestartRobot}, 7)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	decodeOne(&out, plainPrinter(&out), hex.EncodeToString(raw))
	s := out.String()
	if !strings.Contains(s, "seq=7") || !strings.Contains(s, protocol.CmdRestartRobot) {
		t.Fatalf("output:\n%s", s)
	}

	out.Reset()
	decodeOne(&out, plainPrinter(&out), "04")
	if !strings.Contains(out.String(), "1 bytes") {
		t.Fatalf("truncated output:\n%s", out.String())
	}
}

func TestDecodeLines(t *testing.T) {
	hb, err := (&protocol.HeartbeatPacket{PeerType: protocol.PeerTypeDriverStation, Token: protocol.DefaultHeartbeatToken}).Encode()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := protocol.EncodeEnvelope(protocol.TypeHeartbeat, 0, hb)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	in := strings.NewReader("\n" + hex.EncodeToString(raw) + "\n")
	if err := decodeLines(in, &out, plainPrinter(&out)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), protocol.TypeHeartbeat.String()+" payload=") {
		t.Fatalf("output:\n%s", out.String())
	}
}
