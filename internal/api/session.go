package api

import (
	"net/http"

	"github.com/ashureev/tutorcito/internal/auth"
	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/identity"
	"github.com/go-chi/chi/v5"
)

// viewResponse is the client's UI state.
type viewResponse struct {
	View         domain.View         `json:"view"`
	AuthMode     domain.AuthMode     `json:"auth_mode"`
	ActiveTab    domain.Tab          `json:"active_tab"`
	User         *domain.UserSession `json:"user,omitempty"`
	Notification *auth.Notification  `json:"notification,omitempty"`
}

func newViewResponse(c *domain.Client) viewResponse {
	return viewResponse{
		View:      c.View,
		AuthMode:  c.AuthMode,
		ActiveTab: c.ActiveTab,
		User:      c.User,
	}
}

// RegisterRoutes registers view, auth, progress and dashboard routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/view", h.GetView)
	r.Put("/api/view/tab", h.SwitchTab)
	r.Put("/api/view/auth-mode", h.SwitchAuthMode)

	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/logout", h.Logout)

	r.Get("/api/progress", h.GetProgress)
	r.Get("/api/progress/{topic}", h.GetTopicDetail)
	r.Get("/api/dashboard", h.GetDashboard)
}

// GetView returns the current view state.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	client, err := h.sessions.Client(r.Context(), identity.ClientIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, newViewResponse(client))
}

// SwitchTab handles PUT /api/view/tab.
func (h *Handler) SwitchTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tab, err := domain.ParseTab(req.Tab)
	if err != nil {
		writeError(w, err)
		return
	}
	client, err := h.sessions.SwitchTab(r.Context(), identity.ClientIDFromContext(r.Context()), tab)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, newViewResponse(client))
}

// SwitchAuthMode handles PUT /api/view/auth-mode.
func (h *Handler) SwitchAuthMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := domain.ParseAuthMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	client, err := h.sessions.SwitchAuthMode(r.Context(), identity.ClientIDFromContext(r.Context()), mode)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, newViewResponse(client))
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	client, err := h.sessions.Login(r.Context(), identity.ClientIDFromContext(r.Context()), req)
	h.respondSession(w, client, err, auth.LoginNotification())
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	client, err := h.sessions.Register(r.Context(), identity.ClientIDFromContext(r.Context()), req)
	h.respondSession(w, client, err, auth.RegisterNotification())
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	client, err := h.sessions.Logout(r.Context(), identity.ClientIDFromContext(r.Context()))
	h.respondSession(w, client, err, auth.LogoutNotification())
}

func (h *Handler) respondSession(w http.ResponseWriter, client *domain.Client, err error, n auth.Notification) {
	if err != nil {
		writeError(w, err)
		return
	}
	resp := newViewResponse(client)
	resp.Notification = &n
	JSON(w, http.StatusOK, resp)
}
