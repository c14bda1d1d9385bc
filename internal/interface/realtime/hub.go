// Package realtime is the WebSocket transport: a room registry, one session
// per connection and the frame dispatcher.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/internal/application"
	"github.com/oksasatya/circle-up/internal/observability"
	"github.com/oksasatya/circle-up/pkg/helpers"
)

// Frame is the envelope of every message on the socket in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub maps rooms to the sessions subscribed to them.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Session]struct{}
	metrics *observability.Metrics
	logger  *logrus.Logger
}

var _ application.Broadcaster = (*Hub)(nil)

func NewHub(m *observability.Metrics, logger *logrus.Logger) *Hub {
	if m == nil {
		m = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &Hub{rooms: map[string]map[*Session]struct{}{}, metrics: m, logger: logger}
}

// Join subscribes s to room. Joining twice is a no-op.
func (h *Hub) Join(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = map[*Session]struct{}{}
		h.rooms[room] = members
	}
	if _, dup := members[s]; dup {
		return
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}
	h.metrics.RoomSubscriptions.Inc()
}

func (h *Hub) Leave(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, room)
}

func (h *Hub) leaveLocked(s *Session, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	if _, in := members[s]; !in {
		return
	}
	delete(members, s)
	delete(s.rooms, room)
	h.metrics.RoomSubscriptions.Dec()
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Remove drops s from every room it joined.
func (h *Hub) Remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range s.rooms {
		h.leaveLocked(s, room)
	}
}

// Subscribers reports how many sessions are in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) Publish(ctx context.Context, room, event string, payload any) error {
	return h.PublishExcept(ctx, room, event, payload, nil)
}

// PublishExcept fans the event out to room, skipping except. A session with
// a full buffer loses the frame.
func (h *Hub) PublishExcept(_ context.Context, room, event string, payload any, except *Session) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		if s != except {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.enqueue(frame) {
			h.metrics.FramesDropped.WithLabelValues("buffer_full").Inc()
			h.logger.WithFields(logrus.Fields{"session_id": s.ID, "room": room, "event": event}).Warn("ws frame dropped")
		}
	}
	return nil
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}
