package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/tutorcito/internal/api"
	"github.com/ashureev/tutorcito/internal/config"
	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/identity"
	"github.com/ashureev/tutorcito/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	defaultMaxRequestBodySize = 1 << 20 // 1MB
	defaultKeepaliveInterval  = 10 * time.Second
)

// Handler serves the chat endpoints.
type Handler struct {
	service     *Service
	repo        store.Repository
	rateLimiter *RateLimiter
	maxBody     int64
	keepalive   time.Duration
}

// NewHandler creates a chat handler. A nil cfg uses defaults.
func NewHandler(service *Service, repo store.Repository, cfg *config.Config) *Handler {
	rateLimitRequests := 10
	rateLimitWindow := time.Minute
	maxBody := int64(defaultMaxRequestBodySize)
	keepalive := defaultKeepaliveInterval

	if cfg != nil {
		rateLimitRequests = cfg.RateLimit.RequestsPerWindow
		rateLimitWindow = cfg.RateLimit.WindowDuration
		maxBody = cfg.SSE.MaxRequestBodySize
		keepalive = cfg.SSE.KeepaliveInterval
	}
	if maxBody <= 0 {
		maxBody = defaultMaxRequestBodySize
	}
	if keepalive <= 0 {
		keepalive = defaultKeepaliveInterval
	}

	return &Handler{
		service:     service,
		repo:        repo,
		rateLimiter: NewRateLimiter(rateLimitRequests, rateLimitWindow),
		maxBody:     maxBody,
		keepalive:   keepalive,
	}
}

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
	r.Get("/api/messages", h.HandleMessages)
}

// Close stops background work.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
}

type chatResult struct {
	event *ChatEvent
	err   error
}

// HandleChat handles POST /api/chat. The exchange is streamed as server-sent
// events named after each ChatEvent type. A blank message gets 204.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	clientID := identity.ClientIDFromContext(r.Context())
	if clientID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ClientID = clientID

	if !IsBlank(req.Message) && !h.rateLimiter.Allow(clientID) {
		h.service.reject("rate_limited")
		api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	slog.Info("Chat request",
		"client_id", clientID,
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"remote_ip", identity.IPFromRequest(r),
		"message_length", len(req.Message),
	)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	results := make(chan chatResult)
	go func() {
		defer close(results)
		for event, err := range h.service.Chat(ctx, req) {
			select {
			case results <- chatResult{event: event, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	h.stream(w, r, results)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, results <-chan chatResult) {
	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	var flusher http.Flusher
	started := false

	for {
		select {
		case <-r.Context().Done():
			return
		case res, ok := <-results:
			if !ok {
				if !started {
					w.WriteHeader(http.StatusNoContent)
				}
				return
			}
			if res.err != nil {
				if !started {
					writeChatError(w, res.err)
					return
				}
				slog.Warn("Chat stream failed", "error", res.err)
				data, _ := json.Marshal(map[string]string{"error": res.err.Error()})
				if err := writeSSE(w, "error", string(data)); err == nil {
					flusher.Flush()
				}
				return
			}

			if !started {
				f, ok := w.(http.Flusher)
				if !ok {
					api.Error(w, http.StatusInternalServerError, "streaming not supported")
					return
				}
				flusher = f
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				w.Header().Set("Connection", "keep-alive")
				w.WriteHeader(http.StatusOK)
				started = true
			}

			data, err := json.Marshal(res.event)
			if err != nil {
				slog.Warn("failed to marshal chat event", "error", err)
				return
			}
			if err := writeSSE(w, string(res.event.Type), string(data)); err != nil {
				slog.Warn("failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if !started {
				continue
			}
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		api.Error(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, ErrReplyInProgress):
		api.Error(w, http.StatusConflict, "reply in progress")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Info("Chat request canceled", "error", err)
	default:
		slog.Error("Chat request failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "chat failed")
	}
}

// HandleMessages handles GET /api/messages.
func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	clientID := identity.ClientIDFromContext(r.Context())
	client, err := h.repo.GetClient(r.Context(), clientID)
	if err != nil {
		slog.Error("Failed to load client", "error", err, "client_id", clientID)
		api.Error(w, http.StatusInternalServerError, "failed to load client")
		return
	}
	if client == nil || !client.IsAuthenticated() {
		api.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	messages, err := h.repo.ListMessages(r.Context(), clientID)
	if err != nil {
		slog.Error("Failed to list messages", "error", err, "client_id", clientID)
		api.Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	api.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
