package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	sendBufferSize = 16
)

// session is one viewer connection. Frames are pushed through a bounded
// channel; a viewer that cannot keep up is disconnected rather than allowed
// to stall the broadcaster.
type session struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// enqueue offers a frame without blocking. Reports false when the buffer is
// full, which the broadcaster treats as a dead viewer.
func (s *session) enqueue(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// writePump owns all writes on the connection.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains and discards inbound frames. The feed is one-way; the read
// loop exists to notice closes and answer pings.
func (s *session) readPump(onClose func()) {
	defer onClose()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
