// Package feed streams station events to websocket viewers.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/station"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // 90% of pongWait
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Message is the JSON frame written to viewers.
type Message struct {
	Kind     string         `json:"kind"`
	ClientID string         `json:"client_id,omitempty"`
	Event    *station.Event `json:"event,omitempty"`
}

// Hub fans messages out to connected viewers. Viewers are read-only;
// anything they send is discarded.
type Hub struct {
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.RWMutex
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.Named("feed"),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every viewer.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
			h.logger.Info("viewer connected", zap.String("client_id", c.id))
			if hello, err := json.Marshal(Message{Kind: "hello", ClientID: c.id}); err == nil {
				c.send <- hello
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
				h.logger.Info("viewer disconnected", zap.String("client_id", c.id))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("dropping slow viewer", zap.String("client_id", id))
					close(c.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ServeWS upgrades the request and registers the viewer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{hub: h, conn: conn, id: uuid.NewString(), send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// Publish queues an event for every viewer. It drops the event when the
// broadcast queue is full.
func (h *Hub) Publish(ev station.Event) {
	msg, err := json.Marshal(Message{Kind: "event", Event: &ev})
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug("broadcast queue full", zap.String("kind", string(ev.Kind)))
	}
}

// Forward publishes events until the channel closes or ctx is done.
func (h *Hub) Forward(ctx context.Context, events <-chan station.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Publish(ev)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
