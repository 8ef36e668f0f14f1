package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talgya/hearsay/internal/engine"
)

const (
	streamQueue        = 16
	streamWriteTimeout = 5 * time.Second
)

// TickSummary is pushed to stream subscribers after every tick.
type TickSummary struct {
	Tick    uint64          `json:"tick"`
	Running bool            `json:"running"`
	Stats   engine.SimStats `json:"stats"`
}

// Hub fans tick summaries out to WebSocket subscribers.
// Slow subscribers lose messages rather than stall the engine.
type Hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
	log     *zap.Logger
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[*streamClient]struct{}), log: logger}
}

// Publish queues a summary for every subscriber.
func (h *Hub) Publish(sum TickSummary) {
	b, err := json.Marshal(sum)
	if err != nil {
		h.log.Error("encode tick summary", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.log.Debug("stream subscriber lagging, dropped tick", zap.Uint64("tick", sum.Tick))
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) add(c *streamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

// enqueue delivers one message to a single client, dropping it when full.
func (h *Hub) enqueue(c *streamClient, sum TickSummary) {
	b, err := json.Marshal(sum)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *streamClient) writeLoop() {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
		time.Now().Add(time.Second))
}

// handleStream upgrades to a WebSocket and streams tick summaries. The current
// state is sent first so a client knows it is subscribed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, streamQueue)}
	if !s.hub.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server closing"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	go c.writeLoop()
	s.log.Debug("stream subscriber connected", zap.String("remote", r.RemoteAddr))

	s.hub.enqueue(c, s.currentSummary())

	// Inbound messages are ignored; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.remove(c)
	s.log.Debug("stream subscriber disconnected", zap.String("remote", r.RemoteAddr))
}

func (s *Server) currentSummary() TickSummary {
	running := s.eng.Running()
	var sum TickSummary
	s.eng.Read(func(sim *engine.Simulation) {
		sum = TickSummary{Tick: sim.LastTick, Running: running, Stats: sim.Stats}
	})
	return sum
}

// tickHook publishes each finished tick to the hub.
func (s *Server) tickHook(tick uint64, stats engine.SimStats) {
	if s.hub.Len() == 0 {
		return
	}
	s.hub.Publish(TickSummary{Tick: tick, Running: s.eng.Running(), Stats: stats})
}
