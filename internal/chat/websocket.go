package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/vadym312/AI-Chatbot/internal/domain"
)

// wsFrame is the JSON frame pushed to websocket subscribers.
type wsFrame struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// wsInbound is what clients send over the socket.
type wsInbound struct {
	Message string                  `json:"message"`
	Media   *domain.MediaDescriptor `json:"media,omitempty"`
}

const wsWriteTimeout = 10 * time.Second

// ConnManager tracks live websocket connections per chat so every
// subscribed tab sees appended messages.
type ConnManager struct {
	mu     sync.RWMutex
	active map[string]map[*websocket.Conn]struct{}
}

// NewConnManager creates a connection manager.
func NewConnManager() *ConnManager {
	return &ConnManager{
		active: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Register adds a connection as a subscriber of a chat.
func (m *ConnManager) Register(chatID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[chatID]; !exists {
		m.active[chatID] = make(map[*websocket.Conn]struct{})
	}
	m.active[chatID][conn] = struct{}{}
	slog.Info("Chat subscriber registered", "chat_id", chatID)
}

// Unregister removes a connection from a chat's subscribers.
func (m *ConnManager) Unregister(chatID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conns, ok := m.active[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.active, chatID)
		}
	}
}

// Subscribers returns the number of live connections for a chat.
func (m *ConnManager) Subscribers(chatID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active[chatID])
}

// Broadcast sends a frame to every subscriber of a chat. Write failures
// are left for each connection's own read loop to clean up.
func (m *ConnManager) Broadcast(chatID string, frame wsFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		slog.Warn("Failed to marshal websocket frame", "chat_id", chatID, "error", err)
		return
	}

	m.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(m.active[chatID]))
	for conn := range m.active[chatID] {
		conns = append(conns, conn)
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			slog.Debug("WebSocket write error", "chat_id", chatID, "error", err)
		}
		cancel()
	}
}

// CloseChat terminates all connections subscribed to a chat.
func (m *ConnManager) CloseChat(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.active[chatID] {
		_ = conn.Close(websocket.StatusNormalClosure, "chat removed")
	}
	delete(m.active, chatID)
}

// WebSocketHandler serves the live chat transport.
type WebSocketHandler struct {
	mgr           *Manager
	conns         *ConnManager
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a websocket chat handler.
func NewWebSocketHandler(mgr *Manager, conns *ConnManager, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		mgr:           mgr,
		conns:         conns,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP upgrades the connection and pumps inbound messages through the
// send pipeline. Replies reach the sender via the chat broadcast.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		http.Error(w, `{"error":"chat_id is required"}`, http.StatusBadRequest)
		return
	}

	if _, err := h.mgr.GetChat(r.Context(), chatID); err != nil {
		if IsNotFound(err) {
			http.Error(w, `{"error":"chat not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to load chat"}`, http.StatusInternalServerError)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "chat_id", chatID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "chat_id", chatID)
		}
	}()

	h.conns.Register(chatID, ws)
	defer h.conns.Unregister(chatID, ws)

	ctx := r.Context()
	for {
		_, payload, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket read error", "chat_id", chatID, "error", err)
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(payload, &in); err != nil {
			h.writeError(ctx, ws, domain.ErrInvalidRequest.Message)
			continue
		}
		if strings.TrimSpace(in.Message) == "" {
			h.writeError(ctx, ws, domain.ErrInvalidRequest.Message)
			continue
		}

		// Broadcast delivers both appended messages to every subscriber,
		// the sender included.
		if _, _, err := h.mgr.SendMessage(ctx, chatID, in.Message, in.Media); err != nil {
			h.writeError(ctx, ws, domain.Classify(err).Message)
		}
	}
}

func (h *WebSocketHandler) writeError(ctx context.Context, ws *websocket.Conn, msg string) {
	payload, err := json.Marshal(wsFrame{Type: "error", Error: msg})
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := ws.Write(wctx, websocket.MessageText, payload); err != nil {
		slog.Debug("WebSocket error write failed", "error", err)
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev || h.allowedOrigin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || strings.HasPrefix(origin, h.allowedOrigin)
}
