// Package hub tracks live websocket connections and delivers outbound
// messages. Room membership lives in the room registry; the hub only knows
// which connection ids are reachable and how to queue bytes to them.
package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/Preet416/remote-work-suite/internal/config"
	pkglog "github.com/Preet416/remote-work-suite/pkg/log"
	"github.com/Preet416/remote-work-suite/pkg/metrics"
)

// ErrClientNotFound reports a send to a connection id that is not live.
// Callers on the relay path ignore it; the disconnect broadcast is the
// authoritative "peer is gone" signal.
var ErrClientNotFound = errors.New("client not found")

// Hub is the connection registry.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// NewHub creates a new Hub.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		config:     cfg,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	l := pkglog.L()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			metrics.ConnectionsActive.Inc()
			l.Info().Str(pkglog.FieldConnectionID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				metrics.ConnectionsActive.Dec()
			}
			h.mu.Unlock()
			l.Info().Str(pkglog.FieldConnectionID, client.ID).Msg("client unregistered")
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToClient queues a message to a specific connection. Delivery is
// asynchronous: a full send buffer drops the message rather than blocking
// the caller, so a slow recipient cannot stall a room.
func (h *Hub) SendToClient(connID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.send <- data:
	default:
		pkglog.L().Warn().Str(pkglog.FieldConnectionID, connID).Msg("send buffer full, message dropped")
	}
	return nil
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
