// Package websocket fans reload notifications out to connected browser
// tabs. A central hub goroutine owns the client set; registration,
// disconnection, and broadcasting all flow through channels so no client
// can block another.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/axisframe/axis/internal/logging"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
)

// ReloadMessage tells a browser tab to refresh. Filename is the project
// path that changed, empty for full-page reloads with no single cause.
type ReloadMessage struct {
	Type      string    `json:"type"`
	Filename  string    `json:"filename,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PongMessage answers a client-level {"type":"ping"} liveness probe.
type PongMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected browser tab.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster owns the live-reload client set.
type Broadcaster struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	logger       logging.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewBroadcaster starts the hub goroutine and returns a ready
// broadcaster.
func NewBroadcaster(logger logging.Logger) *Broadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Broadcaster{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client, 32),
		unregister: make(chan *websocket.Conn, 32),
		logger:     logger.WithComponent("livereload"),
		ctx:        ctx,
		cancel:     cancel,
	}
	go b.runHub()
	return b
}

// HandleWebSocket upgrades an HTTP request and registers the client for
// reload notifications.
func (b *Broadcaster) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if b.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The dev server binds loopback; cross-origin pages on the
		// same machine are fine.
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionDisabled,
	})
	if err != nil {
		b.logger.Warn(r.Context(), "websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
	}

	select {
	case b.register <- client:
	case <-b.ctx.Done():
		conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	}

	go b.handleClient(client)
}

// NotifyReload broadcasts a reload message for a changed file. Dropped
// silently if the hub is saturated or shut down; a missed reload is
// recoverable by the next one.
func (b *Broadcaster) NotifyReload(filename string) {
	msg := ReloadMessage{
		Type:      "reload",
		Filename:  filename,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Warn(b.ctx, "cannot marshal reload message", "error", err)
		return
	}

	select {
	case b.broadcast <- data:
	case <-b.ctx.Done():
	default:
		b.logger.Warn(b.ctx, "broadcast channel full, dropping reload")
	}
}

// ClientCount returns the number of connected tabs.
func (b *Broadcaster) ClientCount() int {
	b.clientsMutex.RLock()
	defer b.clientsMutex.RUnlock()
	return len(b.clients)
}

// Shutdown closes every client connection and stops the hub.
func (b *Broadcaster) Shutdown(ctx context.Context) error {
	b.shutdownOnce.Do(func() {
		b.cancel()

		b.clientsMutex.Lock()
		for conn, client := range b.clients {
			close(client.send)
			conn.Close(websocket.StatusNormalClosure, "server shutdown")
		}
		b.clients = make(map[*websocket.Conn]*Client)
		b.clientsMutex.Unlock()

		b.logger.Info(ctx, "live reload broadcaster stopped")
	})
	return nil
}

func (b *Broadcaster) runHub() {
	for {
		select {
		case client := <-b.register:
			b.registerClient(client)
		case conn := <-b.unregister:
			b.unregisterClient(conn)
		case message := <-b.broadcast:
			b.broadcastToClients(message)
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *Broadcaster) registerClient(client *Client) {
	b.clientsMutex.Lock()
	b.clients[client.conn] = client
	total := len(b.clients)
	b.clientsMutex.Unlock()

	b.logger.Debug(b.ctx, "reload client connected", "total", total)
}

func (b *Broadcaster) unregisterClient(conn *websocket.Conn) {
	b.clientsMutex.Lock()
	client, exists := b.clients[conn]
	if exists {
		delete(b.clients, conn)
		close(client.send)
	}
	total := len(b.clients)
	b.clientsMutex.Unlock()

	if exists {
		conn.Close(websocket.StatusNormalClosure, "")
		b.logger.Debug(b.ctx, "reload client disconnected", "total", total)
	}
}

// broadcastToClients delivers a message to every client. A client whose
// send buffer is full is dropped rather than allowed to stall delivery
// to the others.
func (b *Broadcaster) broadcastToClients(message []byte) {
	b.clientsMutex.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for _, client := range b.clients {
		clients = append(clients, client)
	}
	b.clientsMutex.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			go func(c *Client) {
				select {
				case b.unregister <- c.conn:
				case <-b.ctx.Done():
				}
			}(client)
		}
	}
}

func (b *Broadcaster) handleClient(client *Client) {
	defer func() {
		select {
		case b.unregister <- client.conn:
		case <-b.ctx.Done():
		}
	}()

	go b.writeToClient(client)
	b.readFromClient(client)
}

// readFromClient reads inbound frames to notice disconnects and answers
// application-level {"type":"ping"} probes with a timestamped pong.
// Pongs ride through the send channel like any other outbound message.
func (b *Broadcaster) readFromClient(client *Client) {
	for {
		ctx, cancel := context.WithTimeout(b.ctx, readTimeout)
		kind, data, err := client.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}
		if kind != websocket.MessageText {
			continue
		}

		var probe struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(data, &probe) != nil || probe.Type != "ping" {
			continue
		}
		pong, err := json.Marshal(PongMessage{Type: "pong", Timestamp: time.Now()})
		if err != nil {
			continue
		}
		select {
		case client.send <- pong:
		case <-b.ctx.Done():
			return
		default:
			// Full buffer, skip; the next ping will try again.
		}
	}
}

func (b *Broadcaster) writeToClient(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(b.ctx, writeTimeout)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(b.ctx, writeTimeout)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-b.ctx.Done():
			return
		}
	}
}
