// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/metrics"
	"github.com/danielhkuo/election-room/models"
)

const (
	sendBuffer   = 64
	pingInterval = 30 * time.Second
	maxReadBytes = 16 << 10
)

// Session is one connected client. It is bound to at most one room.
type Session struct {
	ID     string
	conn   *websocket.Conn
	send   chan models.Envelope
	cancel context.CancelFunc

	// guarded by Hub.mu
	room     string
	username string
}

// MessageHandler processes inbound envelopes from a session.
type MessageHandler interface {
	HandleMessage(ctx context.Context, s *Session, msg models.Envelope)
}

// Hub tracks connected sessions and their rooms and fans events out to
// them. Delivery is best effort: a session whose buffer is full misses
// the event.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[string]map[string]*Session
	handler  MessageHandler
	accept   *websocket.AcceptOptions
	logger   *slog.Logger
	metrics  *metrics.Metrics
	closed   bool
}

// NewHub creates a hub accepting websocket upgrades from allowedOrigin
// ("*" or empty accepts any origin).
func NewHub(allowedOrigin string, logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
		accept:   acceptOptions(allowedOrigin),
		logger:   logger.With("component", "realtime"),
		metrics:  m,
	}
}

func acceptOptions(allowedOrigin string) *websocket.AcceptOptions {
	if allowedOrigin == "" || allowedOrigin == "*" {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	host := allowedOrigin
	if u, err := url.Parse(allowedOrigin); err == nil && u.Host != "" {
		host = u.Host
	}
	return &websocket.AcceptOptions{OriginPatterns: []string{host}}
}

// SetHandler installs the inbound message handler. Call it before the hub
// serves any connection.
func (h *Hub) SetHandler(handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(maxReadBytes)

	// The request context ends when the handler returns; sessions outlive
	// nothing but their connection.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	s := &Session{
		ID:     auth.NewID(),
		conn:   conn,
		send:   make(chan models.Envelope, sendBuffer),
		cancel: cancel,
	}
	if !h.register(s) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unregister(s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ctx, s)
	}()
	h.readPump(ctx, s)
	cancel()
	<-done
}

func (h *Hub) register(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s.ID] = s
	h.metrics.SessionOpened()
	h.logger.Debug("session connected", "session_id", s.ID)
	return true
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.ID]; !ok {
		return
	}
	delete(h.sessions, s.ID)
	h.leaveLocked(s)
	h.metrics.SessionClosed()
	h.logger.Debug("session disconnected", "session_id", s.ID)
}

// JoinRoom binds a session to a room, leaving any previous room.
func (h *Hub) JoinRoom(sessionID, room, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if s.room != room {
		h.leaveLocked(s)
	}
	s.room = room
	s.username = username
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]*Session)
	}
	h.rooms[room][s.ID] = s
}

// LeaveRoom unbinds a session from its room, if any.
func (h *Hub) LeaveRoom(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[sessionID]; ok {
		h.leaveLocked(s)
	}
}

func (h *Hub) leaveLocked(s *Session) {
	if s.room == "" {
		return
	}
	if room, ok := h.rooms[s.room]; ok {
		delete(room, s.ID)
		if len(room) == 0 {
			delete(h.rooms, s.room)
		}
	}
	s.room = ""
}

// Room returns the room a session is bound to and the username it joined
// with.
func (h *Hub) Room(sessionID string) (room, username string, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return "", "", false
	}
	return s.room, s.username, s.room != ""
}

// BroadcastRoom sends an envelope to every session in a room.
func (h *Hub) BroadcastRoom(room string, msg models.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.rooms[room] {
		h.enqueue(s, msg)
	}
}

// BroadcastAll sends an envelope to every connected session.
func (h *Hub) BroadcastAll(msg models.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		h.enqueue(s, msg)
	}
}

// SendTo sends an envelope to one session.
func (h *Hub) SendTo(sessionID string, msg models.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.sessions[sessionID]; ok {
		h.enqueue(s, msg)
	}
}

func (h *Hub) enqueue(s *Session, msg models.Envelope) {
	select {
	case s.send <- msg:
	default:
		h.logger.Warn("session send buffer full", "session_id", s.ID, "type", msg.Type)
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomSize returns the number of sessions bound to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every session and refuses new ones. Hijacked
// websocket connections are not closed by http.Server.Shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, s := range h.sessions {
		s.cancel()
	}
}

func (h *Hub) readPump(ctx context.Context, s *Session) {
	for {
		var msg models.Envelope
		if err := wsjson.Read(ctx, s.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				h.logger.Debug("websocket read failed", "session_id", s.ID, "error", err)
			}
			return
		}

		h.mu.RLock()
		handler := h.handler
		h.mu.RUnlock()
		if handler != nil {
			handler.HandleMessage(ctx, s, msg)
		}
	}
}

func (h *Hub) writePump(ctx context.Context, s *Session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.conn.CloseNow()

	for {
		select {
		case msg := <-s.send:
			if err := wsjson.Write(ctx, s.conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			s.conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(eventType string, payload any) (models.Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return models.Envelope{Type: eventType, Payload: raw}, nil
}
