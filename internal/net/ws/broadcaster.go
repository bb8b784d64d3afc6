// Package ws streams read-only world snapshots to viewer connections. The
// feed is strictly one-way; orders never enter the simulation through it.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"starfall/server/internal/sim"
)

// Broadcaster fans snapshot frames out to every connected viewer.
type Broadcaster struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
	closed   bool
}

// NewBroadcaster builds an empty viewer registry.
func NewBroadcaster(logger *log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.Default()
	}
	return &Broadcaster{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessions: make(map[*session]struct{}),
	}
}

// Handle upgrades the request and serves the viewer until it disconnects.
func (b *Broadcaster) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Printf("viewer upgrade failed: %v", err)
		return
	}
	s := newSession(conn)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.sessions[s] = struct{}{}
	count := len(b.sessions)
	b.mu.Unlock()
	b.logger.Printf("viewer connected remote=%s total=%d", conn.RemoteAddr(), count)

	go s.writePump()
	s.readPump(func() {
		b.remove(s)
	})
}

// Broadcast marshals the snapshot once and offers it to every viewer. Slow
// viewers are dropped.
func (b *Broadcaster) Broadcast(snapshot sim.Snapshot) {
	frame, err := json.Marshal(snapshot)
	if err != nil {
		b.logger.Printf("snapshot marshal failed: %v", err)
		return
	}
	b.mu.Lock()
	var stale []*session
	for s := range b.sessions {
		if !s.enqueue(frame) {
			stale = append(stale, s)
		}
	}
	for _, s := range stale {
		delete(b.sessions, s)
	}
	b.mu.Unlock()
	for _, s := range stale {
		b.logger.Printf("viewer dropped, send buffer full remote=%s", s.conn.RemoteAddr())
		s.close()
	}
}

// Viewers reports the connected viewer count.
func (b *Broadcaster) Viewers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close disconnects every viewer and rejects future connections.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	sessions := make([]*session, 0, len(b.sessions))
	for s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.sessions = make(map[*session]struct{})
	b.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

func (b *Broadcaster) remove(s *session) {
	b.mu.Lock()
	delete(b.sessions, s)
	b.mu.Unlock()
	s.close()
}
