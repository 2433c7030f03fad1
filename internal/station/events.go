package station

import (
	"sync"
	"time"
)

// EventKind classifies station events.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventRobotSeen    EventKind = "robot_seen"
	EventCommandIn    EventKind = "command_in"
	EventCommandOut   EventKind = "command_out"
	EventState        EventKind = "state"
	EventOpModes      EventKind = "opmodes"
	EventStackTrace   EventKind = "stacktrace"
	EventBattery      EventKind = "battery"
	EventStatus       EventKind = "status"
	EventTelemetry    EventKind = "telemetry"
	EventSDKMismatch  EventKind = "sdk_mismatch"
	EventHandshake    EventKind = "handshake"
)

// Event is one observable change in the station.
type Event struct {
	Kind EventKind `json:"kind"`
	At   time.Time `json:"at"`
	Name string    `json:"name,omitempty"`
	Data string    `json:"data,omitempty"`
}

// broadcaster fans events out to subscribers. Slow subscribers miss
// events rather than blocking the publisher.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func (b *broadcaster) subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 64
	}
	ch := make(chan Event, buf)
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[chan Event]struct{})
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
