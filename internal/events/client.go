package events

import (
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultQueueSize is the outbound queue capacity used for new connections.
// Large enough to absorb bursts, small enough that a stuck client is evicted
// before it buffers unbounded memory.
const DefaultQueueSize = 256

// Client is one live websocket connection for an authenticated user.
// The manager is the only writer to the send queue; the client's own
// write pump is its only reader.
type Client struct {
	ID    string
	Name  string
	Email string
	Conn  *websocket.Conn

	send    chan []byte
	manager *Manager
	log     *zap.Logger
}

// InitSendQueue allocates the outbound queue. Call exactly once, before the
// client is registered.
func (c *Client) InitSendQueue(size int) {
	c.send = make(chan []byte, size)
}

// setManager wires the back-reference the read pump uses to unregister
// itself. The manager sets it during registration; the client never owns
// the manager.
func (c *Client) setManager(m *Manager) {
	c.manager = m
	c.log = m.log.With(zap.String("user_id", c.ID), zap.String("name", c.Name))
}

// Start spins up the read and write pumps. Call only after the client has
// been handed to the manager for registration.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump drains inbound frames until the peer goes away. Clients do not
// talk to the server over the websocket (all actions arrive via the REST
// API), so the payloads are discarded; reading exists to detect closure.
// Whatever ends the loop, the client unregisters itself and releases the
// socket.
func (c *Client) readPump() {
	defer func() {
		c.manager.UnregisterClient(c)
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", zap.Error(err))
			} else {
				c.log.Debug("websocket closed")
			}
			return
		}
	}
}

// writePump drains the outbound queue to the socket in FIFO order. It ends
// when the manager closes the queue during unregistration, or on a write
// error. It never unregisters the client itself; queue closure is the
// manager's call.
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}

	// Queue closed: tell the peer we are done. Best effort.
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
