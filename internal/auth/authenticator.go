// Package auth simulates sign-in for the tutor and drives the client view
// state machine. No credential is ever checked or stored.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
)

var (
	// ErrPasswordMismatch is returned when a registration's password and
	// confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrMissingField is returned when a required form field is empty.
	ErrMissingField = errors.New("missing required field")
)

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Authenticator turns submitted forms into user sessions.
type Authenticator interface {
	Login(ctx context.Context, req LoginRequest) (domain.UserSession, error)
	Register(ctx context.Context, req RegisterRequest) (domain.UserSession, error)
}

// StubAuthenticator accepts every well-formed form after a fixed delay.
// It stands in for a real identity provider and must be replaced before any
// real user data is involved.
type StubAuthenticator struct {
	Delay time.Duration
}

// Login derives the display name from the part of the email before "@".
func (a StubAuthenticator) Login(ctx context.Context, req LoginRequest) (domain.UserSession, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return domain.UserSession{}, ErrMissingField
	}
	if err := sleep(ctx, a.Delay); err != nil {
		return domain.UserSession{}, err
	}
	name, _, _ := strings.Cut(email, "@")
	return domain.UserSession{DisplayName: name, Email: email}, nil
}

// Register checks the password confirmation locally before the delay. The
// password itself is discarded.
func (a StubAuthenticator) Register(ctx context.Context, req RegisterRequest) (domain.UserSession, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return domain.UserSession{}, ErrMissingField
	}
	if req.Password != req.ConfirmPassword {
		return domain.UserSession{}, ErrPasswordMismatch
	}
	if err := sleep(ctx, a.Delay); err != nil {
		return domain.UserSession{}, err
	}
	return domain.UserSession{DisplayName: name, Email: email}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Authenticator = StubAuthenticator{}
