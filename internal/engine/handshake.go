package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

// HandshakeState tracks session negotiation with the robot controller.
type HandshakeState int

const (
	HandshakeIdle HandshakeState = iota
	HandshakeRequesting
	HandshakeComplete
)

func (s HandshakeState) String() string {
	switch s {
	case HandshakeIdle:
		return "idle"
	case HandshakeRequesting:
		return "requesting"
	case HandshakeComplete:
		return "complete"
	default:
		return "invalid"
	}
}

// BeginHandshake moves idle to requesting and starts the repeating burst.
// It reports whether the transition happened; from any other state it
// does nothing.
func (e *Engine) BeginHandshake() bool {
	return e.transition(HandshakeIdle, HandshakeRequesting)
}

// CompleteHandshake moves requesting to complete and stops the burst. No
// burst starts after it returns. From any other state it does nothing.
func (e *Engine) CompleteHandshake() bool {
	return e.transition(HandshakeRequesting, HandshakeComplete)
}

// HandshakeState returns the current handshake state.
func (e *Engine) HandshakeState() HandshakeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handshake
}

func (e *Engine) transition(from, to HandshakeState) bool {
	e.mu.Lock()
	if e.handshake != from {
		e.mu.Unlock()
		return false
	}
	e.handshake = to
	e.mu.Unlock()

	e.metrics.setHandshake(to)
	e.log.Info("handshake", zap.Stringer("from", from), zap.Stringer("to", to))
	select {
	case e.handshakeChanged <- struct{}{}:
	default:
	}
	return true
}

// handshakeTimer owns the burst ticker. It lives on the run loop only.
type handshakeTimer struct {
	ticker *time.Ticker
}

// C returns the ticker channel, or nil when no handshake is in progress so
// the select case never fires.
func (h *handshakeTimer) C() <-chan time.Time {
	if h.ticker == nil {
		return nil
	}
	return h.ticker.C
}

func (h *handshakeTimer) stop() {
	if h.ticker != nil {
		h.ticker.Stop()
		h.ticker = nil
	}
}

// syncHandshake arms or disarms the burst ticker to match the current
// state. Entering requesting fires the first burst immediately.
func (e *Engine) syncHandshake(h *handshakeTimer) {
	if e.HandshakeState() != HandshakeRequesting {
		h.stop()
		return
	}
	if h.ticker != nil {
		return
	}
	h.ticker = time.NewTicker(e.cfg.HandshakeInterval)
	e.handshakeBurst()
}

// handshakeBurst re-announces configuration and init requests. The state
// check and sequence allocation happen under one lock so a burst never
// starts after CompleteHandshake.
func (e *Engine) handshakeBurst() {
	now := e.now()
	packets := []protocol.Packet{
		&protocol.CommandPacket{Timestamp: uint64(now.UnixNano()), Name: protocol.CmdRequestActiveConfig},
		&protocol.CommandPacket{Timestamp: uint64(now.UnixNano()), Name: protocol.CmdInitOpMode, Data: protocol.StopOpMode},
		nil,
		nil,
	}
	payloads := make([][]byte, 0, len(packets))

	e.mu.Lock()
	if e.handshake != HandshakeRequesting {
		e.mu.Unlock()
		return
	}
	packets[2] = protocol.NewTimePacket(now, e.timezone, e.opModeState)
	packets[3] = protocol.NewTimePacket(now, e.timezone, e.opModeState)
	for _, p := range packets {
		payload, err := p.Encode()
		if err != nil {
			e.mu.Unlock()
			e.log.Error("encode handshake packet", zap.Stringer("type", p.Type()), zap.Error(err))
			return
		}
		payloads = append(payloads, payload)
	}
	frames := make([][]byte, len(packets))
	for i, p := range packets {
		raw, err := protocol.EncodeEnvelope(p.Type(), e.nextSeqLocked(), payloads[i])
		if err != nil {
			e.mu.Unlock()
			e.log.Error("frame handshake packet", zap.Stringer("type", p.Type()), zap.Error(err))
			return
		}
		frames[i] = raw
	}
	e.mu.Unlock()

	for i, raw := range frames {
		e.transmit(packets[i].Type(), raw)
	}
}
