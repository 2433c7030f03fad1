// Package capture keeps the most recent raw datagrams for inspection.
package capture

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/dcrubro/ftc-driver-hub/internal/protocol"
)

const (
	DefaultSlots    = 512
	DefaultMaxBytes = 4 * 1024 * 1024
)

// Frame is one captured datagram. ID increases by one per capture and
// is never reused.
type Frame struct {
	ID  uint64
	At  time.Time
	Dir protocol.Direction
	Raw []byte
}

// Hex returns the datagram as lowercase hex.
func (f Frame) Hex() string {
	return hex.EncodeToString(f.Raw)
}

// Decode routes the captured bytes.
func (f Frame) Decode() (protocol.Envelope, protocol.Packet, error) {
	return protocol.Route(f.Raw)
}

// Ring is a fixed-slot ring of recent frames with a soft byte limit. When
// either limit is hit the oldest frames are evicted.
//
// Ring is safe for concurrent use.
type Ring struct {
	mu       sync.Mutex
	frames   []Frame
	size     int // total raw bytes stored
	maxSize  int
	head     int // next write position
	count    int
	capacity int
	nextID   uint64
	now      func() time.Time
}

// New creates a ring holding at most slots frames. Non-positive slots
// uses DefaultSlots.
func New(slots int) *Ring {
	return NewWithLimit(slots, DefaultMaxBytes)
}

// NewWithLimit is New with an explicit byte limit. A single frame larger
// than maxBytes is still stored.
func NewWithLimit(slots, maxBytes int) *Ring {
	if slots <= 0 {
		slots = DefaultSlots
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Ring{
		frames:   make([]Frame, slots),
		maxSize:  maxBytes,
		capacity: slots,
		nextID:   1,
		now:      time.Now,
	}
}

// ObserveFrame stores a copy of raw. It satisfies engine.FrameObserver.
func (r *Ring) ObserveFrame(dir protocol.Direction, raw []byte) {
	p := make([]byte, len(raw))
	copy(p, raw)
	at := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count > 0 && r.size+len(p) > r.maxSize {
		r.evictOldest()
	}
	if r.count >= r.capacity {
		r.evictOldest()
	}

	r.frames[r.head] = Frame{ID: r.nextID, At: at, Dir: dir, Raw: p}
	r.nextID++
	r.head = (r.head + 1) % r.capacity
	r.count++
	r.size += len(p)
}

// tail returns the index of the oldest frame. Caller holds r.mu and
// ensures r.count > 0.
func (r *Ring) tail() int {
	return (r.head - r.count + r.capacity) % r.capacity
}

func (r *Ring) evictOldest() {
	t := r.tail()
	r.size -= len(r.frames[t].Raw)
	r.frames[t] = Frame{}
	r.count--
}

// Since returns the stored frames with ID > afterID, oldest first, or nil
// if none qualify.
func (r *Ring) Since(afterID uint64) []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Frame
	t := r.tail()
	for i := 0; i < r.count; i++ {
		f := r.frames[(t+i)%r.capacity]
		if f.ID > afterID {
			out = append(out, f)
		}
	}
	return out
}

// Last returns up to n of the newest frames, oldest first.
func (r *Ring) Last(n int) []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(n, r.count)
	if n <= 0 {
		return nil
	}
	out := make([]Frame, n)
	start := (r.head - n + r.capacity) % r.capacity
	for i := range n {
		out[i] = r.frames[(start+i)%r.capacity]
	}
	return out
}

// Len returns the number of stored frames.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// OldestID returns the ID of the oldest stored frame, or 0 if empty.
func (r *Ring) OldestID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return 0
	}
	return r.frames[r.tail()].ID
}

// NewestID returns the ID of the newest stored frame, or 0 if empty.
func (r *Ring) NewestID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return 0
	}
	return r.frames[(r.head-1+r.capacity)%r.capacity].ID
}
