// Package feed broadcasts served renders to websocket subscribers.
package feed

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/observability"
)

// Config holds websocket timing for the feed.
type Config struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a subscriber may stay silent (no pong) before it is dropped.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SendBuffer is the per-subscriber queue length. Messages to a full queue are dropped.
	SendBuffer int
}

// DefaultConfig returns default feed configuration.
func DefaultConfig() Config {
	return Config{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   64,
	}
}

// Message is the JSON frame sent for every render.
type Message struct {
	Address   string `json:"address"`
	Renderer  string `json:"renderer"`
	Format    string `json:"format"`
	Serial    string `json:"serial"`
	CacheHit  bool   `json:"cache_hit"`
	Timestamp int64  `json:"timestamp"`
}

// Hub fans render events out to connected websocket clients.
type Hub struct {
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	send chan Message
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// NewHub creates a new Hub. allowOrigin decides which browser origins may subscribe;
// nil allows all.
func NewHub(config Config, logger *slog.Logger, allowOrigin func(origin string) bool) *Hub {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	h := &Hub{
		config:  config,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowOrigin == nil || origin == "" {
				return true
			}
			return allowOrigin(origin)
		},
	}
	return h
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends a render event to every subscriber without blocking.
func (h *Hub) Publish(e *domain.RenderEvent) {
	if h.closed.Load() || e == nil {
		return
	}
	msg := Message{
		Address:   e.Address,
		Renderer:  e.Renderer,
		Format:    e.Format,
		Serial:    e.Serial,
		CacheHit:  e.CacheHit,
		Timestamp: e.Timestamp,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("feed subscriber queue full, dropping message", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// ServeHTTP upgrades the request and registers the connection as a subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("feed upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Message, h.config.SendBuffer),
		done: make(chan struct{}),
	}
	h.wg.Add(2)
	h.register(c)

	go h.readLoop(c)
	go h.writeLoop(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetFeedSubscribers(n)
	h.logger.Debug("feed subscriber connected", "remote", c.conn.RemoteAddr().String(), "subscribers", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		observability.SetFeedSubscribers(n)
		h.logger.Debug("feed subscriber disconnected", "remote", c.conn.RemoteAddr().String(), "subscribers", n)
	}
}

// readLoop discards client frames and detects disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer c.stop()

	c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop owns all writes to the connection.
func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.stop()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		}
	}
}

// Close disconnects all subscribers and waits for their goroutines.
func (h *Hub) Close() error {
	if h.closed.Swap(true) {
		return nil // Already closed
	}

	h.mu.RLock()
	for c := range h.clients {
		c.stop()
	}
	h.mu.RUnlock()

	h.wg.Wait()
	return nil
}
