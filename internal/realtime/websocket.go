package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/identity"
	"github.com/ashureev/tutorcito/internal/store"
	"github.com/ashureev/tutorcito/internal/tutor"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const writeTimeout = 5 * time.Second

// inbound is a client frame.
type inbound struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// errorFrame reports a failed exchange to the sending connection only.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ChatHandler upgrades /ws/chat and runs chat exchanges over the socket.
// Events of an exchange are sent to every open socket of the client.
type ChatHandler struct {
	repo          store.Repository
	service       *tutor.Service
	sm            *SessionManager
	allowedOrigin string
	isDev         bool
}

// NewChatHandler creates a websocket chat handler.
func NewChatHandler(repo store.Repository, service *tutor.Service, sm *SessionManager, allowedOrigin string, isDev bool) *ChatHandler {
	return &ChatHandler{
		repo:          repo,
		service:       service,
		sm:            sm,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := identity.ClientIDFromContext(r.Context())
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	client, err := h.repo.GetClient(r.Context(), clientID)
	if err != nil {
		slog.Error("Failed to load client for chat socket", "error", err, "client_id", clientID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if client == nil || !client.IsAuthenticated() {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "client_id", clientID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "client_id", clientID)
		}
	}()

	connID := uuid.NewString()
	h.sm.Register(clientID, connID, ws)
	defer h.sm.Unregister(clientID, connID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	h.readLoop(ctx, ws, clientID, &wg)
	cancel()
	wg.Wait()
	slog.Info("Chat socket ended", "client_id", clientID, "conn_id", connID, "remote_ip", identity.IPFromRequest(r))
}

func (h *ChatHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *ChatHandler) readLoop(ctx context.Context, ws *websocket.Conn, clientID string, wg *sync.WaitGroup) {
	for {
		var msg inbound
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("Chat socket closed by client", "client_id", clientID)
			} else {
				slog.Warn("Chat socket read error", "error", err, "client_id", clientID)
			}
			return
		}

		switch msg.Type {
		case "ping":
			h.touch(ctx, clientID)
			h.write(ctx, ws, map[string]string{"type": "pong"})
		case "message":
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.exchange(ctx, ws, clientID, msg.Content)
			}()
		default:
			h.write(ctx, ws, errorFrame{Type: "error", Error: "unknown message type"})
		}
	}
}

// exchange runs one chat exchange. Replies arrive asynchronously so a second
// message sent while the first is pending is rejected with an error frame.
func (h *ChatHandler) exchange(ctx context.Context, ws *websocket.Conn, clientID, content string) {
	req := tutor.ChatRequest{ClientID: clientID, Message: content}
	for event, err := range h.service.Chat(ctx, req) {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			h.write(ctx, ws, errorFrame{Type: "error", Error: chatErrorMessage(err)})
			return
		}
		h.sm.Broadcast(ctx, clientID, event)
	}
}

func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, tutor.ErrReplyInProgress):
		return "reply in progress"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not authenticated"
	default:
		slog.Error("Chat socket exchange failed", "error", err)
		return "chat failed"
	}
}

// touch keeps a socket-only client from looking idle to the TTL sweep.
// Exchanges refresh it through the tutor service.
func (h *ChatHandler) touch(ctx context.Context, clientID string) {
	if err := h.repo.UpdateLastSeen(ctx, clientID, time.Now()); err != nil {
		slog.Warn("Failed to update last seen", "error", err, "client_id", clientID)
	}
}

func (h *ChatHandler) write(ctx context.Context, ws *websocket.Conn, v any) {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(writeCtx, ws, v); err != nil {
		slog.Debug("Chat socket write failed", "error", err)
	}
}
