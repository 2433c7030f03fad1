// Package logging builds the process zap logger.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvLogLevel  = "FTCHUB_LOG_LEVEL"
	EnvLogFormat = "FTCHUB_LOG_FORMAT"
)

// Options selects level and encoding. Environment variables override both.
type Options struct {
	Level  string // debug, info, warn, error, off
	Format string // json or console
}

// New builds a logger from opts after applying environment overrides.
func New(opts Options) (*zap.Logger, error) {
	applyEnvOverrides(&opts)

	level, enabled, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return zap.NewNop(), nil
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console", "text":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func applyEnvOverrides(opts *Options) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		opts.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		opts.Format = v
	}
}

// parseLevel maps a level name to a zap level. enabled is false for the
// names that switch logging off.
func parseLevel(raw string) (level zapcore.Level, enabled bool, err error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zapcore.InfoLevel, true, nil
	case "debug", "trace":
		return zapcore.DebugLevel, true, nil
	case "warn", "warning":
		return zapcore.WarnLevel, true, nil
	case "error":
		return zapcore.ErrorLevel, true, nil
	case "off", "none", "disabled":
		return zapcore.InfoLevel, false, nil
	default:
		return zapcore.InfoLevel, false, fmt.Errorf("logging: unknown level %q", raw)
	}
}
