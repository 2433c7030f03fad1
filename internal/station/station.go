// Package station is the driver-station side of a robot session. It turns
// inbound commands, heartbeats and telemetry into tracked robot state and
// exposes op-mode control on top of the protocol engine.
package station

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/engine"
	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

var (
	ErrNoOpMode       = errors.New("station: no op mode selected")
	ErrNotAttached    = errors.New("station: no engine attached")
	ErrBadMatchNumber = errors.New("station: match number must not be negative")
)

const (
	DefaultTelemetryCapacity = 256
	DefaultStackTraceLines   = 5
)

// Engine is the part of the protocol engine the station drives.
type Engine interface {
	Start(ctx context.Context) error
	Stop() error
	SendCommand(name, data string, acknowledged bool) error
	UpdateGamepad(u engine.GamepadUpdate) protocol.GamepadPacket
	SetOpModeState(s protocol.RobotOpModeState)
	BeginHandshake() bool
	CompleteHandshake() bool
	Snapshot() engine.Snapshot
}

type Options struct {
	Logger *zap.Logger
	// MinSDK is a semver constraint the robot's SDK must satisfy, e.g. ">= 8.1".
	// Empty accepts any version.
	MinSDK            string
	TelemetryCapacity int
	StackTraceLines   int
	Clock             func() time.Time
}

// Status is a point-in-time view of the robot as seen by the station.
type Status struct {
	Connected     bool      `json:"connected"`
	RobotSeen     bool      `json:"robot_seen"`
	LastHeartbeat time.Time `json:"last_heartbeat,omitempty"`
	RobotState    string    `json:"robot_state"`
	RobotStateID  int8      `json:"robot_state_id"`
	Battery       float64   `json:"battery"`
	StatusText    string    `json:"status_text,omitempty"`
	RemoteSDK     string    `json:"remote_sdk,omitempty"`
	SDKCompatible bool      `json:"sdk_compatible"`
	RobotTimezone string    `json:"robot_timezone,omitempty"`
	SelectedMode  string    `json:"selected_op_mode,omitempty"`
	ActiveMode    string    `json:"active_op_mode,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	Handshake     string    `json:"handshake"`
	Ready         bool      `json:"ready"`
	NextSeq       int16     `json:"next_seq"`
	OpModeCount   int       `json:"op_mode_count"`
}

// Controller tracks one robot session.
type Controller struct {
	log        *zap.Logger
	now        func() time.Time
	sdk        *sdkChecker
	traceLines int
	telemetry  *TelemetryStore
	events     broadcaster

	mu            sync.Mutex
	eng           Engine
	connected     bool
	robotSeen     bool
	lastHeartbeat time.Time
	robotState    protocol.RobotOpModeState
	battery       float64
	statusText    string
	remoteSDK     string
	sdkOK         bool
	robotTZ       string
	opModes       []OpMode
	selected      string
	active        string
	lastError     string
}

func New(opts Options) (*Controller, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	capacity := opts.TelemetryCapacity
	if capacity <= 0 {
		capacity = DefaultTelemetryCapacity
	}
	lines := opts.StackTraceLines
	if lines <= 0 {
		lines = DefaultStackTraceLines
	}
	sdk, err := newSDKChecker(opts.MinSDK)
	if err != nil {
		return nil, err
	}
	store, err := NewTelemetryStore(capacity)
	if err != nil {
		return nil, err
	}
	return &Controller{
		log:        log.Named("station"),
		now:        now,
		sdk:        sdk,
		traceLines: lines,
		telemetry:  store,
		robotState: protocol.OpModeUnknown,
		sdkOK:      true,
	}, nil
}

// Attach binds the engine the controller drives. The engine should have
// been built with the controller's Handlers.
func (c *Controller) Attach(eng Engine) {
	c.mu.Lock()
	c.eng = eng
	c.mu.Unlock()
}

func (c *Controller) Handlers() engine.Handlers {
	return engine.Handlers{
		OnCommand:   c.handleCommand,
		OnHeartbeat: c.handleHeartbeat,
		OnTelemetry: c.handleTelemetry,
		OnTime:      c.handleTime,
	}
}

// Subscribe returns a channel of station events and a function that
// unsubscribes and closes it. Events are dropped for a full channel.
func (c *Controller) Subscribe(buf int) (<-chan Event, func()) {
	return c.events.subscribe(buf)
}

func (c *Controller) attached() (Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng == nil {
		return nil, ErrNotAttached
	}
	return c.eng, nil
}

func (c *Controller) emit(kind EventKind, name, data string) {
	c.events.publish(Event{Kind: kind, At: c.now(), Name: name, Data: data})
}

// Connect starts the engine and asks the robot for its op modes.
func (c *Controller) Connect(ctx context.Context) error {
	eng, err := c.attached()
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.emit(EventConnected, "", "")
	c.log.Info("connected")
	return c.RequestOpModes()
}

// Disconnect stops the engine. Robot state is kept for inspection.
func (c *Controller) Disconnect() error {
	eng, err := c.attached()
	if err != nil {
		return err
	}
	if err := eng.Stop(); err != nil {
		return err
	}
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()
	if wasConnected {
		c.emit(EventDisconnected, "", "")
		c.log.Info("disconnected")
	}
	return nil
}

func (c *Controller) send(name, data string) error {
	eng, err := c.attached()
	if err != nil {
		return err
	}
	if err := eng.SendCommand(name, data, false); err != nil {
		return fmt.Errorf("station: send %s: %w", name, err)
	}
	c.emit(EventCommandOut, name, data)
	return nil
}

// SendCommand sends an arbitrary unacknowledged command.
func (c *Controller) SendCommand(name, data string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("station: command name is required")
	}
	return c.send(name, data)
}

// InitOpMode asks the robot to initialize name and remembers it as the
// selected op mode.
func (c *Controller) InitOpMode(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNoOpMode
	}
	if err := c.send(protocol.CmdInitOpMode, name); err != nil {
		return err
	}
	c.mu.Lock()
	c.selected = name
	c.mu.Unlock()
	return nil
}

// StartOpMode runs name, or the selected op mode when name is empty.
func (c *Controller) StartOpMode(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		c.mu.Lock()
		name = c.selected
		c.mu.Unlock()
	}
	if name == "" {
		return ErrNoOpMode
	}
	return c.send(protocol.CmdRunOpMode, name)
}

func (c *Controller) StopOpMode() error {
	return c.send(protocol.CmdInitOpMode, protocol.StopOpMode)
}

func (c *Controller) RequestOpModes() error {
	return c.send(protocol.CmdRequestOpModeList, "")
}

func (c *Controller) RestartRobot() error {
	return c.send(protocol.CmdRestartRobot, "")
}

func (c *Controller) SetMatchNumber(n int) error {
	if n < 0 {
		return ErrBadMatchNumber
	}
	return c.send(protocol.CmdSetMatchNumber, strconv.Itoa(n))
}

func (c *Controller) Gamepad(u engine.GamepadUpdate) (protocol.GamepadPacket, error) {
	eng, err := c.attached()
	if err != nil {
		return protocol.GamepadPacket{}, err
	}
	return eng.UpdateGamepad(u), nil
}

// BeginHandshake starts the periodic handshake burst. It reports whether
// the handshake state changed.
func (c *Controller) BeginHandshake() (bool, error) {
	eng, err := c.attached()
	if err != nil {
		return false, err
	}
	changed := eng.BeginHandshake()
	if changed {
		c.emit(EventHandshake, "requesting", "")
	}
	return changed, nil
}

func (c *Controller) CompleteHandshake() (bool, error) {
	eng, err := c.attached()
	if err != nil {
		return false, err
	}
	changed := eng.CompleteHandshake()
	if changed {
		c.emit(EventHandshake, "complete", "")
	}
	return changed, nil
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	s := Status{
		Connected:     c.connected,
		RobotSeen:     c.robotSeen,
		LastHeartbeat: c.lastHeartbeat,
		RobotState:    c.robotState.String(),
		RobotStateID:  int8(c.robotState),
		Battery:       c.battery,
		StatusText:    c.statusText,
		RemoteSDK:     c.remoteSDK,
		SDKCompatible: c.sdkOK,
		RobotTimezone: c.robotTZ,
		SelectedMode:  c.selected,
		ActiveMode:    c.active,
		LastError:     c.lastError,
		OpModeCount:   len(c.opModes),
	}
	eng := c.eng
	c.mu.Unlock()

	if eng != nil {
		snap := eng.Snapshot()
		s.Handshake = snap.Handshake.String()
		s.Ready = snap.Ready
		s.NextSeq = snap.NextSeq
	} else {
		s.Handshake = engine.HandshakeIdle.String()
	}
	return s
}

func (c *Controller) OpModes() []OpMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]OpMode, len(c.opModes))
	copy(out, c.opModes)
	return out
}

func (c *Controller) Telemetry() []TelemetryValue {
	return c.telemetry.All()
}
