package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 * 1024
	defaultBufSize = 64
)

// Session is one authenticated WebSocket connection. Outbound frames are
// queued on send and written by writePump only.
type Session struct {
	ID     string
	UserID string

	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{} // guarded by Hub.mu

	mu     sync.Mutex
	closed bool
}

func newSession(conn *websocket.Conn, userID string, buffer int) *Session {
	if buffer <= 0 {
		buffer = defaultBufSize
	}
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		rooms:  map[string]struct{}{},
	}
}

// enqueue reports false when the buffer is full. Frames for a closed session
// are discarded silently.
func (s *Session) enqueue(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
