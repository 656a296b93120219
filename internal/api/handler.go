// Package api provides HTTP handlers for the tutor's views and session flow.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/tutorcito/internal/auth"
	"github.com/ashureev/tutorcito/internal/curriculum"
	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/store"
)

// Handler serves the view, session and progress endpoints.
type Handler struct {
	repo     store.Repository
	sessions *auth.Sessions
	catalog  *curriculum.Catalog
}

// NewHandler creates a Handler. A nil catalog uses the embedded curriculum.
func NewHandler(repo store.Repository, sessions *auth.Sessions, catalog *curriculum.Catalog) *Handler {
	if catalog == nil {
		catalog = curriculum.Default()
	}
	return &Handler{
		repo:     repo,
		sessions: sessions,
		catalog:  catalog,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeError maps domain and auth errors to HTTP responses. Form validation
// failures also carry a notification for the learner.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingField), errors.Is(err, auth.ErrPasswordMismatch):
		JSON(w, http.StatusBadRequest, map[string]any{
			"error":        err.Error(),
			"notification": auth.ErrorNotification(err),
		})
	case errors.Is(err, domain.ErrUnknownTab),
		errors.Is(err, domain.ErrUnknownAuthMode),
		errors.Is(err, domain.ErrUnknownTopic):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		Error(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, domain.ErrAlreadyAuthenticated):
		Error(w, http.StatusConflict, "already authenticated")
	case errors.Is(err, context.Canceled):
		slog.Info("Request canceled", "error", err)
	default:
		slog.Error("Request failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	return json.NewDecoder(r.Body).Decode(v)
}
