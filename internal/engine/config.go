package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

// DefaultHandshakeInterval is how often the handshake burst repeats while
// a handshake is in progress.
const DefaultHandshakeInterval = 250 * time.Millisecond

// SDKVersion is the build identity announced in every heartbeat.
type SDKVersion struct {
	BuildMonth int8
	BuildYear  int16
	Major      int8
	Minor      int8
}

// DefaultSDK is the driver station build the engine claims to be.
var DefaultSDK = SDKVersion{BuildMonth: 9, BuildYear: 2023, Major: 8, Minor: 1}

// Config controls one engine session.
type Config struct {
	Host string
	Port int

	TickHz        int // gamepad packets per second
	HeartbeatHz   int
	SendGamepad   bool
	SendHeartbeat bool

	HandshakeInterval time.Duration
	SDK               SDKVersion

	// Timezone is announced in Time packets. Empty means the local zone.
	Timezone string
}

// DefaultConfig returns the standard settings for host.
func DefaultConfig(host string) Config {
	return Config{
		Host:              host,
		Port:              protocol.DefaultPort,
		TickHz:            25,
		HeartbeatHz:       10,
		SendGamepad:       true,
		SendHeartbeat:     true,
		HandshakeInterval: DefaultHandshakeInterval,
		SDK:               DefaultSDK,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("engine: host is required")
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("engine: port %d out of range", c.Port)
	case c.TickHz <= 0:
		return fmt.Errorf("engine: tick_hz must be positive, got %d", c.TickHz)
	case c.HeartbeatHz <= 0:
		return fmt.Errorf("engine: heartbeat_hz must be positive, got %d", c.HeartbeatHz)
	case c.HandshakeInterval <= 0:
		return fmt.Errorf("engine: handshake interval must be positive, got %s", c.HandshakeInterval)
	}
	return nil
}

func hzToInterval(hz int) time.Duration {
	return time.Second / time.Duration(hz)
}
