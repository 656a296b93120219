package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/metrics"
	"github.com/ashureev/tutorcito/internal/shared"
	"github.com/ashureev/tutorcito/internal/store"
)

// LogoutCallback is called after a client signs out.
type LogoutCallback func(clientID string)

// Sessions applies view transitions to stored clients.
type Sessions struct {
	repo     store.Repository
	authn    Authenticator
	locks    *shared.ClientLocks
	metrics  *metrics.Metrics
	onLogout LogoutCallback
	now      func() time.Time
}

// NewSessions creates a session service. locks must be shared with every
// other component that mutates client state.
func NewSessions(repo store.Repository, authn Authenticator, locks *shared.ClientLocks, m *metrics.Metrics) *Sessions {
	if locks == nil {
		locks = &shared.ClientLocks{}
	}
	return &Sessions{
		repo:    repo,
		authn:   authn,
		locks:   locks,
		metrics: m,
		now:     time.Now,
	}
}

// OnLogout registers a callback run after every logout.
func (s *Sessions) OnLogout(cb LogoutCallback) {
	s.onLogout = cb
}

// Client returns the stored client or a fresh unauthenticated one.
func (s *Sessions) Client(ctx context.Context, clientID string) (*domain.Client, error) {
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client == nil {
		client = domain.NewClient(clientID, s.now())
	}
	return client, nil
}

// Login signs a client in and starts a fresh session.
func (s *Sessions) Login(ctx context.Context, clientID string, req LoginRequest) (*domain.Client, error) {
	return s.signIn(ctx, "login", clientID, func() (domain.UserSession, error) {
		return s.authn.Login(ctx, req)
	})
}

// Register creates the (simulated) account and starts a fresh session. A
// password mismatch returns ErrPasswordMismatch and leaves the client as is.
func (s *Sessions) Register(ctx context.Context, clientID string, req RegisterRequest) (*domain.Client, error) {
	return s.signIn(ctx, "register", clientID, func() (domain.UserSession, error) {
		return s.authn.Register(ctx, req)
	})
}

// signIn runs the simulated credential check without holding any lock, so
// tab switches and chats are not held up by the auth delay. The client is
// checked again once the session lock is held.
func (s *Sessions) signIn(ctx context.Context, event, clientID string, authenticate func() (domain.UserSession, error)) (*domain.Client, error) {
	client, err := s.Client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.IsAuthenticated() {
		s.record(event, false)
		return client, domain.ErrAlreadyAuthenticated
	}

	user, err := authenticate()
	if err != nil {
		s.record(event, false)
		slog.Info("Sign-in rejected", "event", event, "client_id", clientID, "error", err)
		return client, err
	}

	unlock := s.locks.LockSession(clientID)
	defer unlock()

	client, err = s.Client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.IsAuthenticated() {
		s.record(event, false)
		return client, domain.ErrAlreadyAuthenticated
	}

	now := s.now()
	client.Authenticate(user)
	client.LastSeenAt = now
	if err := s.repo.BeginSession(ctx, client, domain.InitialProgress(), domain.Greeting(now)); err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	s.record(event, true)
	slog.Info("Client signed in", "event", event, "client_id", clientID, "display_name", user.DisplayName)
	return client, nil
}

// Logout clears the session, transcript and progress, and returns the client
// to the auth view on the chat tab. It succeeds from any state and waits for
// a reply in flight to land first.
func (s *Sessions) Logout(ctx context.Context, clientID string) (*domain.Client, error) {
	unlock := s.locks.LockSession(clientID)
	defer unlock()

	client, err := s.Client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	wasAuthenticated := client.IsAuthenticated()

	client.Logout()
	if err := s.repo.EndSession(ctx, client); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	if wasAuthenticated {
		s.record("logout", true)
	}
	if s.onLogout != nil {
		s.onLogout(clientID)
	}
	slog.Info("Client signed out", "client_id", clientID)
	return client, nil
}

// SwitchTab changes the active tab of a signed-in client.
func (s *Sessions) SwitchTab(ctx context.Context, clientID string, tab domain.Tab) (*domain.Client, error) {
	return s.update(ctx, clientID, func(c *domain.Client) error {
		return c.SwitchTab(tab)
	})
}

// SwitchAuthMode toggles the login/register form of a signed-out client.
func (s *Sessions) SwitchAuthMode(ctx context.Context, clientID string, mode domain.AuthMode) (*domain.Client, error) {
	return s.update(ctx, clientID, func(c *domain.Client) error {
		return c.SwitchAuthMode(mode)
	})
}

func (s *Sessions) update(ctx context.Context, clientID string, apply func(*domain.Client) error) (*domain.Client, error) {
	unlock := s.locks.LockState(clientID)
	defer unlock()

	client, err := s.Client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := apply(client); err != nil {
		return client, err
	}
	if err := s.repo.UpsertClient(ctx, client); err != nil {
		return nil, fmt.Errorf("save client: %w", err)
	}
	return client, nil
}

func (s *Sessions) record(event string, success bool) {
	s.metrics.RecordAuth(event, success)
}
