// Package engine runs one driver-station session against a robot
// controller: it streams gamepad state, keeps the link alive with
// heartbeats, acknowledges inbound commands and drives the handshake.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

var ErrNotRunning = errors.New("engine: not running")

// Sequence numbers start at a random value in [seqSeedMin, seqSeedMax).
const (
	seqSeedMin = 1000
	seqSeedMax = 3000
)

// Transport moves raw datagrams to and from the robot.
type Transport interface {
	Start(ctx context.Context, host string, port int) error
	Send(b []byte) error
	// Recv is valid after Start and is closed when the transport stops.
	Recv() <-chan []byte
	Stop() error
}

// Handlers receive decoded inbound packets. They run on the engine loop
// one at a time, must not block, and must not call Stop.
type Handlers struct {
	OnTelemetry func(*protocol.TelemetryPacket)
	OnCommand   func(*protocol.CommandPacket)
	OnHeartbeat func(*protocol.HeartbeatPacket)
	OnTime      func(*protocol.TimePacket)
}

// FrameObserver sees every datagram sent or received, before decoding.
type FrameObserver interface {
	ObserveFrame(dir protocol.Direction, raw []byte)
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithHandlers(h Handlers) Option {
	return func(e *Engine) { e.handlers = h }
}

func WithObserver(o FrameObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// WithClock replaces time.Now for packet timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSeqSeed fixes the first sequence number instead of picking one at
// random.
func WithSeqSeed(seq int16) Option {
	return func(e *Engine) { e.seq = seq }
}

// Engine is a single driver-station session. Session state lives for the
// lifetime of the Engine; Stop followed by Start resumes it.
type Engine struct {
	cfg      Config
	tr       Transport
	handlers Handlers
	observer FrameObserver
	metrics  *Metrics
	log      *zap.Logger
	now      func() time.Time
	timezone string

	// lifeMu serializes Start and Stop.
	lifeMu sync.Mutex
	// sendMu is held shared by caller-initiated sends for their whole
	// duration. Stop holds it exclusively while clearing running.
	sendMu sync.RWMutex

	mu          sync.Mutex
	running     bool
	seq         int16
	latest      *protocol.GamepadPacket
	handshake   HandshakeState
	opModeState protocol.RobotOpModeState
	ready       bool
	readyCh     chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}

	handshakeChanged chan struct{}
}

// New creates a stopped engine. cfg is assumed valid; see Config.Validate.
func New(cfg Config, tr Transport, opts ...Option) *Engine {
	e := &Engine{
		cfg:              cfg,
		tr:               tr,
		now:              time.Now,
		seq:              int16(seqSeedMin + rand.IntN(seqSeedMax-seqSeedMin)),
		opModeState:      protocol.OpModeUnknown,
		readyCh:          make(chan struct{}),
		handshakeChanged: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.log = e.log.Named("engine")
	e.timezone = cfg.Timezone
	if e.timezone == "" {
		e.timezone = localTimezone()
	}
	if e.cfg.HandshakeInterval <= 0 {
		e.cfg.HandshakeInterval = DefaultHandshakeInterval
	}
	e.metrics.setSequence(e.seq)
	return e
}

// Start opens the transport, announces the local clock and starts the
// periodic senders. ctx bounds transport startup only; the session runs
// until Stop. Start on a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.Running() {
		return nil
	}

	if err := e.tr.Start(ctx, e.cfg.Host, e.cfg.Port); err != nil {
		return fmt.Errorf("engine: start transport: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	e.mu.Lock()
	e.running = true
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	e.sendTime()
	go e.run(loopCtx, e.tr.Recv(), done)

	e.log.Info("engine started",
		zap.String("host", e.cfg.Host),
		zap.Int("port", e.cfg.Port),
		zap.Int("tick_hz", e.cfg.TickHz),
		zap.Int("heartbeat_hz", e.cfg.HeartbeatHz))
	return nil
}

// Stop halts the periodic senders, waits for the loop to exit and closes
// the transport. No handler runs and nothing is sent after Stop returns.
// Stop must not be called from a handler.
func (e *Engine) Stop() error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	e.sendMu.Lock()
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		e.sendMu.Unlock()
		return nil
	}
	e.running = false
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	e.sendMu.Unlock()

	cancel()
	<-done

	if err := e.tr.Stop(); err != nil {
		return fmt.Errorf("engine: stop transport: %w", err)
	}
	e.log.Info("engine stopped")
	return nil
}

// Running reports whether the engine is between Start and Stop.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Ready is closed after the first heartbeat has been sent.
func (e *Engine) Ready() <-chan struct{} {
	return e.readyCh
}

// IsReady reports whether a heartbeat has been sent.
func (e *Engine) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// WaitReady blocks until the first heartbeat is sent or ctx is done.
func (e *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-e.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetOpModeState records the robot state reported in outbound Time packets.
func (e *Engine) SetOpModeState(s protocol.RobotOpModeState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opModeState = s
}

func (e *Engine) OpModeState() protocol.RobotOpModeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opModeState
}

// Snapshot is a point-in-time view of session state.
type Snapshot struct {
	Running     bool
	Ready       bool
	Handshake   HandshakeState
	NextSeq     int16
	OpModeState protocol.RobotOpModeState
	Gamepad     protocol.GamepadPacket
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Running:     e.running,
		Ready:       e.ready,
		Handshake:   e.handshake,
		NextSeq:     e.seq,
		OpModeState: e.opModeState,
		Gamepad:     *e.gamepadLocked(),
	}
}

// SendCommand sends a command with the current wall-clock timestamp. It
// returns ErrNotRunning, without consuming a sequence number, if the engine
// is stopped at any point before the frame is handed to the transport.
func (e *Engine) SendCommand(name, data string, acknowledged bool) error {
	if !e.Running() {
		return ErrNotRunning
	}
	cmd := &protocol.CommandPacket{
		Timestamp:    uint64(e.now().UnixNano()),
		Acknowledged: acknowledged,
		Name:         name,
		Data:         data,
	}
	e.sendMu.RLock()
	defer e.sendMu.RUnlock()
	return e.sendSequenced(cmd)
}

// UpdateGamepad applies u to the latest snapshot, or to the idle snapshot
// if none exists, then applies the stick dead zone and stamps the time.
// It works whether or not the engine is running and returns the stored
// snapshot.
func (e *Engine) UpdateGamepad(u GamepadUpdate) protocol.GamepadPacket {
	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.gamepadLocked()
	u.apply(&next)
	applyDeadZone(&next)
	next.Timestamp = uint64(now.UnixMilli())
	e.latest = &next
	return next
}

// Gamepad returns the snapshot the next tick will send.
func (e *Engine) Gamepad() protocol.GamepadPacket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.gamepadLocked()
}

func (e *Engine) gamepadLocked() *protocol.GamepadPacket {
	if e.latest != nil {
		return e.latest
	}
	return protocol.IdleGamepad(e.now())
}

// nextSeqLocked returns the sequence number for the next non-heartbeat
// frame. Wraps at the int16 boundary.
func (e *Engine) nextSeqLocked() int16 {
	seq := e.seq
	e.seq++
	e.metrics.setSequence(e.seq)
	return seq
}

// run owns the tickers and inbound dispatch until ctx is cancelled.
func (e *Engine) run(ctx context.Context, recv <-chan []byte, done chan<- struct{}) {
	defer close(done)

	var gamepadC, heartbeatC <-chan time.Time
	if e.cfg.SendGamepad {
		t := time.NewTicker(hzToInterval(e.cfg.TickHz))
		defer t.Stop()
		gamepadC = t.C
		e.sendGamepad()
	}
	if e.cfg.SendHeartbeat {
		t := time.NewTicker(hzToInterval(e.cfg.HeartbeatHz))
		defer t.Stop()
		heartbeatC = t.C
		e.sendHeartbeat()
	}

	var hs handshakeTimer
	defer hs.stop()
	e.syncHandshake(&hs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-gamepadC:
			e.sendGamepad()
		case <-heartbeatC:
			e.sendHeartbeat()
		case <-e.handshakeChanged:
			e.syncHandshake(&hs)
		case <-hs.C():
			e.handshakeBurst()
		case raw, ok := <-recv:
			if !ok {
				recv = nil
				continue
			}
			e.handleDatagram(raw)
		}
	}
}

func (e *Engine) sendGamepad() {
	e.sendSequenced(ptr(e.Gamepad()))
}

func (e *Engine) sendHeartbeat() {
	hb := &protocol.HeartbeatPacket{
		PeerType:      protocol.PeerTypeDriverStation,
		Token:         protocol.DefaultHeartbeatToken,
		SDKBuildMonth: e.cfg.SDK.BuildMonth,
		SDKBuildYear:  e.cfg.SDK.BuildYear,
		SDKMajor:      e.cfg.SDK.Major,
		SDKMinor:      e.cfg.SDK.Minor,
	}
	payload, err := hb.Encode()
	if err != nil {
		e.log.Error("encode heartbeat", zap.Error(err))
		return
	}
	raw, err := protocol.EncodeEnvelope(protocol.TypeHeartbeat, 0, payload)
	if err != nil {
		e.log.Error("frame heartbeat", zap.Error(err))
		return
	}
	if e.transmit(protocol.TypeHeartbeat, raw) != nil {
		return
	}

	e.mu.Lock()
	first := !e.ready
	if first {
		e.ready = true
		close(e.readyCh)
	}
	e.mu.Unlock()
	if first {
		e.metrics.setReady()
		e.log.Info("ready")
	}
}

func (e *Engine) sendTime() {
	e.mu.Lock()
	state := e.opModeState
	e.mu.Unlock()
	e.sendSequenced(protocol.NewTimePacket(e.now(), e.timezone, state))
}

// sendSequenced encodes p, assigns it the next sequence number and sends
// it. Encoding failures are logged and nothing is sent. A stopped engine
// sends nothing and keeps its sequence number.
func (e *Engine) sendSequenced(p protocol.Packet) error {
	payload, err := p.Encode()
	if err != nil {
		e.log.Error("encode packet", zap.Stringer("type", p.Type()), zap.Error(err))
		return err
	}
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotRunning
	}
	seq := e.nextSeqLocked()
	e.mu.Unlock()
	raw, err := protocol.EncodeEnvelope(p.Type(), seq, payload)
	if err != nil {
		e.log.Error("frame packet", zap.Stringer("type", p.Type()), zap.Error(err))
		return err
	}
	return e.transmit(p.Type(), raw)
}

// transmit sends one frame. Failures are logged and counted, never retried.
func (e *Engine) transmit(t protocol.PacketType, raw []byte) error {
	if err := e.tr.Send(raw); err != nil {
		e.metrics.sendError(t)
		e.log.Warn("send failed", zap.Stringer("type", t), zap.Error(err))
		return err
	}
	e.metrics.sent(t)
	if e.observer != nil {
		e.observer.ObserveFrame(protocol.Outbound, raw)
	}
	return nil
}

func (e *Engine) handleDatagram(raw []byte) {
	if e.observer != nil {
		e.observer.ObserveFrame(protocol.Inbound, raw)
	}
	env, p, err := protocol.Route(raw)
	if err != nil {
		e.metrics.decodeError()
		e.log.Debug("dropping datagram", zap.Int("bytes", len(raw)), zap.Error(err))
		return
	}
	e.metrics.received(env.Type)

	switch p := p.(type) {
	case *protocol.CommandPacket:
		if e.handlers.OnCommand != nil {
			e.handlers.OnCommand(p)
		}
		if !p.Acknowledged {
			e.sendAck(p, env.Seq)
		}
	case *protocol.HeartbeatPacket:
		if e.handlers.OnHeartbeat != nil {
			e.handlers.OnHeartbeat(p)
		}
	case *protocol.TelemetryPacket:
		if e.handlers.OnTelemetry != nil {
			e.handlers.OnTelemetry(p)
		}
	case *protocol.TimePacket:
		if e.handlers.OnTime != nil {
			e.handlers.OnTime(p)
		}
	case *protocol.GamepadPacket:
		// Robots do not send gamepad state.
	}
}

// sendAck echoes cmd back as acknowledged, reusing the inbound envelope's
// sequence number rather than allocating one.
func (e *Engine) sendAck(cmd *protocol.CommandPacket, seq int16) {
	payload, err := cmd.Ack().Encode()
	if err != nil {
		e.log.Error("encode ack", zap.String("command", cmd.Name), zap.Error(err))
		return
	}
	raw, err := protocol.EncodeEnvelope(protocol.TypeCommand, seq, payload)
	if err != nil {
		e.log.Error("frame ack", zap.String("command", cmd.Name), zap.Error(err))
		return
	}
	if e.transmit(protocol.TypeCommand, raw) == nil {
		e.metrics.ackSent()
		e.log.Debug("acknowledged command", zap.String("command", cmd.Name), zap.Int16("seq", seq))
	}
}

func ptr[T any](v T) *T { return &v }
