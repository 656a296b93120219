package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/identity"
	"github.com/go-chi/chi/v5"
)

// signedIn loads the caller and its progress, failing with
// domain.ErrNotAuthenticated when there is no active session.
func (h *Handler) signedIn(ctx context.Context) (*domain.Client, domain.Progress, error) {
	clientID := identity.ClientIDFromContext(ctx)
	client, err := h.sessions.Client(ctx, clientID)
	if err != nil {
		return nil, domain.Progress{}, err
	}
	if !client.IsAuthenticated() {
		return nil, domain.Progress{}, domain.ErrNotAuthenticated
	}
	progress, found, err := h.repo.GetProgress(ctx, clientID)
	if err != nil {
		return nil, domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	if !found {
		progress = domain.InitialProgress()
	}
	return client, progress, nil
}

// GetProgress handles GET /api/progress.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	_, progress, err := h.signedIn(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"progress": progress})
}

// GetTopicDetail handles GET /api/progress/{topic}.
func (h *Handler) GetTopicDetail(w http.ResponseWriter, r *http.Request) {
	topic, err := domain.ParseTopic(chi.URLParam(r, "topic"))
	if err != nil {
		writeError(w, err)
		return
	}
	_, progress, err := h.signedIn(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.catalog.Detail(topic, progress.Score(topic))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, detail)
}

// GetDashboard handles GET /api/dashboard.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	client, progress, err := h.signedIn(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dashboard, err := h.catalog.Dashboard(client.User.DisplayName, progress)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, dashboard)
}
