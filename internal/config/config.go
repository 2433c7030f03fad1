// Package config loads ftchub settings from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/dcrubro/ftc-driver-hub/internal/engine"
	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

type Config struct {
	Robot   RobotConfig   `toml:"robot"`
	Engine  EngineConfig  `toml:"engine"`
	Log     LogConfig     `toml:"log"`
	HTTP    HTTPConfig    `toml:"http"`
	Record  RecordConfig  `toml:"record"`
	Station StationConfig `toml:"station"`
	Capture CaptureConfig `toml:"capture"`
}

type RobotConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	LocalPort int    `toml:"local_port"`
}

type EngineConfig struct {
	TickHz            int    `toml:"tick_hz"`
	HeartbeatHz       int    `toml:"heartbeat_hz"`
	SendHeartbeat     bool   `toml:"send_heartbeat"`
	SendGamepad       bool   `toml:"send_gamepad"`
	HandshakeInterval string `toml:"handshake_interval"`
	Timezone          string `toml:"timezone"`
	SDKBuildMonth     int    `toml:"sdk_build_month"`
	SDKBuildYear      int    `toml:"sdk_build_year"`
	SDKMajor          int    `toml:"sdk_major"`
	SDKMinor          int    `toml:"sdk_minor"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// HTTPConfig enables the status API when Addr is set. A non-empty Token
// is required from every API client.
type HTTPConfig struct {
	Addr  string `toml:"addr"`
	Token string `toml:"token"`
}

// RecordConfig enables the session recorder when Path is set.
type RecordConfig struct {
	Path string `toml:"path"`
}

type StationConfig struct {
	MinSDK            string `toml:"min_sdk"`
	TelemetryCapacity int    `toml:"telemetry_capacity"`
	StackTraceLines   int    `toml:"stack_trace_lines"`
}

type CaptureConfig struct {
	Size int `toml:"size"`
}

// Default returns the built-in settings. Robot.Host is left empty.
func Default() Config {
	ec := engine.DefaultConfig("")
	return Config{
		Robot: RobotConfig{
			Port:      protocol.DefaultPort,
			LocalPort: protocol.DefaultPort,
		},
		Engine: EngineConfig{
			TickHz:            ec.TickHz,
			HeartbeatHz:       ec.HeartbeatHz,
			SendHeartbeat:     ec.SendHeartbeat,
			SendGamepad:       ec.SendGamepad,
			HandshakeInterval: ec.HandshakeInterval.String(),
			SDKBuildMonth:     int(ec.SDK.BuildMonth),
			SDKBuildYear:      int(ec.SDK.BuildYear),
			SDKMajor:          int(ec.SDK.Major),
			SDKMinor:          int(ec.SDK.Minor),
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Station: StationConfig{
			TelemetryCapacity: 256,
			StackTraceLines:   5,
		},
		Capture: CaptureConfig{Size: 512},
	}
}

// DefaultPath is where ftchub looks for a config file when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ftchub.toml"
	}
	return filepath.Join(dir, "ftchub", "config.toml")
}

// Load overlays the file at path on Default. Keys the file leaves out keep
// their defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("robot", "host") {
		cfg.Robot.Host = strings.TrimSpace(cfg.Robot.Host)
	}
	return cfg, nil
}

// LoadOptional loads path if it exists and returns Default otherwise.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the settings needed to connect.
func (c Config) Validate() error {
	ec, err := c.EngineConfig()
	if err != nil {
		return err
	}
	if err := ec.Validate(); err != nil {
		return err
	}
	if c.Robot.LocalPort < 0 || c.Robot.LocalPort > 65535 {
		return fmt.Errorf("config: robot.local_port %d out of range", c.Robot.LocalPort)
	}
	if c.Station.MinSDK != "" {
		if _, err := semver.NewConstraint(c.Station.MinSDK); err != nil {
			return fmt.Errorf("config: station.min_sdk: %w", err)
		}
	}
	if c.Station.TelemetryCapacity <= 0 {
		return fmt.Errorf("config: station.telemetry_capacity must be positive")
	}
	if c.Capture.Size < 0 {
		return fmt.Errorf("config: capture.size must not be negative")
	}
	return nil
}

// EngineConfig projects the settings the engine consumes.
func (c Config) EngineConfig() (engine.Config, error) {
	ec := engine.DefaultConfig(c.Robot.Host)
	ec.Port = c.Robot.Port
	ec.TickHz = c.Engine.TickHz
	ec.HeartbeatHz = c.Engine.HeartbeatHz
	ec.SendHeartbeat = c.Engine.SendHeartbeat
	ec.SendGamepad = c.Engine.SendGamepad
	ec.Timezone = c.Engine.Timezone
	ec.SDK = engine.SDKVersion{
		BuildMonth: int8(c.Engine.SDKBuildMonth),
		BuildYear:  int16(c.Engine.SDKBuildYear),
		Major:      int8(c.Engine.SDKMajor),
		Minor:      int8(c.Engine.SDKMinor),
	}
	if s := strings.TrimSpace(c.Engine.HandshakeInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return engine.Config{}, fmt.Errorf("config: engine.handshake_interval: %w", err)
		}
		ec.HandshakeInterval = d
	}
	return ec, nil
}
