package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	applogger "AgentDesk/pkg/logger"
)

const maxReadBytes = 512

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	agents map[int64]struct{}
}

// Subscription is the set of agents one connection receives events for.
// An empty subscription receives nothing.
type Subscription struct {
	Agents map[int64]struct{}
}

// NewSubscription subscribes to the given agent ids.
func NewSubscription(ids ...int64) Subscription {
	agents := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		agents[id] = struct{}{}
	}
	return Subscription{Agents: agents}
}

func (s Subscription) Has(id int64) bool {
	_, ok := s.Agents[id]
	return ok
}

// Hub fans training status events out to websocket subscribers. Callers
// decide what a connection may see before handing it over.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration
	sendBuffer   int

	register   chan *client
	unregister chan *client
	events     chan models.TrainingStatusEvent
	clients    map[*client]struct{}
	count      atomic.Int64
	done       chan struct{}

	metrics domrepo.Metrics
	log     *applogger.Logger
}

type Option func(*Hub)

func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithAllowedOrigins restricts the upgrade to the given origins; "*" allows any.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		}
	}
}

func NewHub(metrics domrepo.Metrics, log *applogger.Logger, opts ...Option) *Hub {
	h := &Hub{
		upgrader:     websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		sendBuffer:   16,
		register:     make(chan *client),
		unregister:   make(chan *client),
		events:       make(chan models.TrainingStatusEvent, 256),
		clients:      make(map[*client]struct{}),
		done:         make(chan struct{}),
		metrics:      metrics,
		log:          log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Broadcast queues ev for delivery. It never blocks; events are dropped when
// the hub is saturated.
func (h *Hub) Broadcast(ev models.TrainingStatusEvent) {
	select {
	case h.events <- ev:
	default:
		h.metrics.RecordError("realtime_drop")
	}
}

// Run owns the subscriber set until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.updateCount()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case ev := <-h.events:
			msg, err := json.Marshal(ev)
			if err != nil {
				h.metrics.RecordError("realtime_encode")
				continue
			}
			for c := range h.clients {
				if _, ok := c.agents[ev.AgentID]; !ok {
					continue
				}
				select {
				case c.send <- msg:
				default:
					// slow subscriber
					h.drop(c)
				}
			}
		}
	}
}

// ServeWS upgrades the request and streams the events of sub until the
// connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sub Subscription) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer), agents: sub.Agents}
	select {
	case h.register <- c:
	case <-r.Context().Done():
		_ = conn.Close()
		return nil
	case <-h.done:
		_ = conn.Close()
		return nil
	}
	h.log.Debug("realtime subscriber connected", applogger.Int("agents", len(sub.Agents)))

	go h.writeLoop(c)
	h.readLoop(c)
	return nil
}

// readLoop only consumes control frames; subscribers never send data.
func (h *Hub) readLoop(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.updateCount()
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	h.metrics.SetRealtimeClients(len(h.clients))
}
