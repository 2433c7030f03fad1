package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[robot]
host = " 192.168.43.1 "

[engine]
heartbeat_hz = 1
send_gamepad = false
handshake_interval = "500ms"

[station]
min_sdk = ">= 8.0"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Robot.Host != "192.168.43.1" || cfg.Robot.Port != 20884 {
		t.Fatalf("robot = %+v", cfg.Robot)
	}
	if cfg.Engine.TickHz != 25 || cfg.Engine.HeartbeatHz != 1 || cfg.Engine.SendGamepad || !cfg.Engine.SendHeartbeat {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Station.TelemetryCapacity != 256 {
		t.Fatalf("telemetry capacity default lost: %d", cfg.Station.TelemetryCapacity)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	ec, err := cfg.EngineConfig()
	if err != nil {
		t.Fatal(err)
	}
	if ec.HandshakeInterval != 500*time.Millisecond || ec.Host != "192.168.43.1" || ec.SDK.BuildYear != 2023 {
		t.Fatalf("engine config = %+v", ec)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[robot]\nhost = \"x\"\nhots = \"typo\"\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "robot.hots") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.HeartbeatHz != 10 {
		t.Fatalf("expected defaults, got %+v", cfg.Engine)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults with host", func(*Config) {}, true},
		{"missing host", func(c *Config) { c.Robot.Host = "" }, false},
		{"bad duration", func(c *Config) { c.Engine.HandshakeInterval = "soon" }, false},
		{"bad constraint", func(c *Config) { c.Station.MinSDK = "not a version" }, false},
		{"bad local port", func(c *Config) { c.Robot.LocalPort = -1 }, false},
		{"zero capacity", func(c *Config) { c.Station.TelemetryCapacity = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Robot.Host = "robot"
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
