// Package identity provides anonymous per-browser client identity.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/store"
	"github.com/google/uuid"
)

const (
	ClientCookieName = "tutorcito_client_id"
	clientCookieTTL  = 30 * 24 * time.Hour
)

type contextKey int

const clientIDKey contextKey = iota

var clientIDPattern = regexp.MustCompile(`^client_[a-f0-9]{32}$`)

// ClientIDFromContext extracts the client ID from the request context.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientIDKey).(string); ok {
		return v
	}
	return ""
}

// WithClientID returns a context carrying clientID.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

func generateClientID() string {
	return "client_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func isValidClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}

func ensureClient(ctx context.Context, repo store.Repository, clientID string) error {
	client, err := repo.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	now := time.Now()
	if client != nil {
		return repo.UpdateLastSeen(ctx, clientID, now)
	}
	return repo.UpsertClient(ctx, domain.NewClient(clientID, now))
}

func setClientCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(clientCookieTTL.Seconds()),
		Expires:  time.Now().Add(clientCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

func getOrCreateClientID(w http.ResponseWriter, r *http.Request, isDev bool) string {
	if c, err := r.Cookie(ClientCookieName); err == nil && isValidClientID(c.Value) {
		setClientCookie(w, c.Value, isDev)
		return c.Value
	}
	id := generateClientID()
	setClientCookie(w, id, isDev)
	return id
}

// Middleware injects the anonymous client ID, creating the client record on
// first contact and refreshing its last-seen time afterwards.
func Middleware(repo store.Repository, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := getOrCreateClientID(w, r, isDev)

			if err := ensureClient(r.Context(), repo, clientID); err != nil {
				http.Error(w, `{"error":"failed to initialize client"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), clientID)))
		})
	}
}

// IPFromRequest returns the remote IP without its port, for request logs.
// Behind chi's RealIP middleware RemoteAddr already holds the forwarded IP.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
