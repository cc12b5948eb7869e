package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultWriteTimeout bounds how long one slow subscriber can stall a
// broadcast.
const defaultWriteTimeout = 2 * time.Second

// Frame is the envelope for every message pushed to subscribers.
type Frame struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// conn is the subset of websocket.Conn the hub needs; injectable for
// tests.
type conn interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	CloseNow() error
}

type subscriber struct {
	id     string
	conn   conn
	cancel context.CancelFunc
}

// Hub fans frames out to all connected subscribers. A subscriber whose
// write fails or times out is evicted immediately; one dead consumer
// must never wedge the rest.
type Hub struct {
	logger       *zap.Logger
	writeTimeout time.Duration

	mu   sync.Mutex
	subs map[string]*subscriber
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		subs:         make(map[string]*subscriber),
	}
}

// add registers a connection and returns its subscriber ID.
func (h *Hub) add(c conn, cancel context.CancelFunc) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.subs[id] = &subscriber{id: id, conn: c, cancel: cancel}
	n := len(h.subs)
	h.mu.Unlock()

	subscriberGauge.Set(float64(n))
	h.logger.Debug("subscriber connected", zap.String("id", id), zap.Int("total", n))
	return id
}

// remove drops a subscriber and closes its connection.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.cancel()
	_ = sub.conn.CloseNow()
	subscriberGauge.Set(float64(n))
	h.logger.Debug("subscriber disconnected", zap.String("id", id), zap.Int("total", n))
}

// Broadcast sends one frame to every subscriber. The frame is encoded
// once; each subscriber gets its own bounded write, and failures evict.
// Delivery runs inside the hub lock, so a subscriber being removed
// concurrently either receives this frame and then goes, or is gone
// before the broadcast iterates; never both.
func (h *Hub) Broadcast(frameType string, data any) {
	payload, err := json.Marshal(Frame{
		Type:      frameType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		h.logger.Error("frame encoding failed", zap.String("type", frameType), zap.Error(err))
		return
	}

	h.mu.Lock()
	var sent int
	var evicted []*subscriber
	for _, sub := range h.subs {
		ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
		err := sub.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			h.logger.Debug("subscriber write failed, evicting",
				zap.String("id", sub.id), zap.Error(err))
			delete(h.subs, sub.id)
			evicted = append(evicted, sub)
			continue
		}
		sent++
	}
	n := len(h.subs)
	h.mu.Unlock()

	for _, sub := range evicted {
		sub.cancel()
		_ = sub.conn.CloseNow()
		h.logger.Debug("subscriber disconnected", zap.String("id", sub.id), zap.Int("total", n))
	}
	subscriberGauge.Set(float64(n))
	framesSent.WithLabelValues(frameType).Add(float64(sent))
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CloseAll disconnects every subscriber, used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		_ = sub.conn.CloseNow()
	}
	subscriberGauge.Set(0)
}
