package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		enabled bool
		wantErr bool
	}{
		{"", zapcore.InfoLevel, true, false},
		{"DEBUG", zapcore.DebugLevel, true, false},
		{" warning ", zapcore.WarnLevel, true, false},
		{"error", zapcore.ErrorLevel, true, false},
		{"off", zapcore.InfoLevel, false, false},
		{"loud", zapcore.InfoLevel, false, true},
	}
	for _, tt := range tests {
		level, enabled, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseLevel(%q) err = %v", tt.in, err)
		}
		if err == nil && (level != tt.want || enabled != tt.enabled) {
			t.Fatalf("parseLevel(%q) = %s, %v", tt.in, level, enabled)
		}
	}
}

func TestEnvOverridesOptions(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "console")

	log, err := New(Options{Level: "error", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("env level override not applied")
	}
}

func TestOffReturnsNop(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	log, err := New(Options{Level: "off"})
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("off logger is enabled")
	}
}

func TestUnknownFormat(t *testing.T) {
	t.Setenv(EnvLogFormat, "")
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
