// README: Live driver sessions over websocket; offers are pushed as JSON frames.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"zonetaxi/internal/logger"
	"zonetaxi/internal/types"
)

const writeWait = 5 * time.Second

type envelope struct {
	Type  string `json:"type"`
	Offer Offer  `json:"offer"`
}

type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// Hub holds one websocket session per driver.
type Hub struct {
	mu       sync.RWMutex
	sessions map[types.ID]*session
	log      logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{sessions: make(map[types.ID]*session), log: logger.OrNop(log)}
}

// Attach registers conn for driverID, closing any previous session, and
// blocks reading until the peer goes away.
func (h *Hub) Attach(driverID types.ID, conn *websocket.Conn) {
	s := &session{conn: conn}
	h.mu.Lock()
	if old, ok := h.sessions[driverID]; ok {
		_ = old.conn.Close()
	}
	h.sessions[driverID] = s
	h.mu.Unlock()
	h.log.Debugf("driver %s connected", driverID)

	defer h.detach(driverID, s)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) Connected(driverID types.ID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[driverID]
	return ok
}

func (h *Hub) Notify(_ context.Context, to Recipient, offer Offer) error {
	h.mu.RLock()
	s, ok := h.sessions[to.DriverID]
	h.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.send(envelope{Type: "ride_offer", Offer: offer}); err != nil {
		h.log.Warnf("ws send to %s: %v", to.DriverID, err)
		h.detach(to.DriverID, s)
		return err
	}
	return nil
}

func (h *Hub) detach(driverID types.ID, s *session) {
	h.mu.Lock()
	if cur, ok := h.sessions[driverID]; ok && cur == s {
		delete(h.sessions, driverID)
	}
	h.mu.Unlock()
	_ = s.conn.Close()
}
