package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tristendillon/widgetforge/core/logger"
)

const writeWait = 10 * time.Second

// pongWait is how long a client may stay silent. Pings go out at nine
// tenths of it.
var pongWait = 60 * time.Second

type hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	pongWait time.Duration
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{}), pongWait: pongWait}
}

func (h *hub) Register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) Unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.Close()
}

func (h *hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			logger.Warn("Dropping slow reload client")
			go h.Unregister(c)
		}
	}
}

func (h *hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	pongWait time.Duration
	once     sync.Once
}

func newClient(conn *websocket.Conn, pongWait time.Duration) *client {
	return &client{
		conn:     conn,
		send:     make(chan []byte, 16),
		pongWait: pongWait,
	}
}

// writeLoop is the only writer on conn; it interleaves reload frames with
// keepalive pings.
func (c *client) writeLoop() {
	ticker := time.NewTicker((c.pongWait * 9) / 10)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("Reload client write failed: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("Reload client ping failed: %v", err)
				return
			}
		}
	}
}

// readLoop drains control frames until the peer goes away.
func (c *client) readLoop(onClose func()) {
	defer func() {
		if onClose != nil {
			onClose()
		}
	}()
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) Close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
