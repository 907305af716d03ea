package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Preet416/remote-work-suite/internal/domain"
	pkglog "github.com/Preet416/remote-work-suite/pkg/log"
)

// DisconnectHandler is called once when a client's transport closes, before
// the client is unregistered.
type DisconnectHandler func(*Client)

// Client wraps a single websocket connection.
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn

	send chan []byte

	mu       sync.RWMutex
	identity domain.Identity

	disconnectHandler DisconnectHandler
}

// NewClient creates a client with a buffered send queue.
func NewClient(id string, h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Hub:  h,
		Conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}
}

// SetDisconnectHandler sets the handler to be called on disconnect.
func (c *Client) SetDisconnectHandler(handler DisconnectHandler) {
	c.disconnectHandler = handler
}

// SetIdentity records the identity the client announced at admission time.
func (c *Client) SetIdentity(ident domain.Identity) {
	c.mu.Lock()
	c.identity = ident
	c.mu.Unlock()
}

// Identity returns the announced identity.
func (c *Client) Identity() domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// SendMessage queues a message to this client, dropping it if the buffer is
// full.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
	default:
	}
	return nil
}

// ReadPump pumps messages from the websocket connection to the handler.
// It runs in a per-connection goroutine; all reads happen here, so inbound
// messages from one client are processed strictly in order.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		if c.disconnectHandler != nil {
			c.disconnectHandler(c)
		}
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				pkglog.L().Error().Err(err).Str(pkglog.FieldConnectionID, c.ID).Msg("websocket error")
			}
			break
		}

		handler(c, message)
	}
}

// WritePump pumps queued messages to the websocket connection. It is the
// single writer for the connection, which also gives per-pair ordering: two
// messages queued for the same recipient leave in queue order.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
