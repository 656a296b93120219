package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotAuthenticated is returned for operations that need a signed-in client.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAlreadyAuthenticated is returned for operations only valid before sign-in.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrUnknownTab is returned when a tab name is not recognized.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrUnknownAuthMode is returned when an auth mode is not recognized.
	ErrUnknownAuthMode = errors.New("unknown auth mode")
)

// View is the top-level screen a client is on.
type View string

const (
	ViewAuth View = "auth"
	ViewApp  View = "app"
)

// AuthMode selects which form the auth view shows.
type AuthMode string

const (
	AuthModeLogin    AuthMode = "login"
	AuthModeRegister AuthMode = "register"
)

// ParseAuthMode validates an auth mode string.
func ParseAuthMode(s string) (AuthMode, error) {
	switch m := AuthMode(strings.ToLower(strings.TrimSpace(s))); m {
	case AuthModeLogin, AuthModeRegister:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAuthMode, s)
	}
}

// Tab is a section of the authenticated view.
type Tab string

const (
	TabChat      Tab = "chat"
	TabDashboard Tab = "dashboard"
)

// ParseTab validates a tab string.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabChat, TabDashboard:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
}

// UserSession is the signed-in user context. It carries no credentials.
type UserSession struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Client is one browser or device and the UI state it owns.
type Client struct {
	ClientID   string       `json:"client_id"`
	View       View         `json:"view"`
	AuthMode   AuthMode     `json:"auth_mode"`
	ActiveTab  Tab          `json:"active_tab"`
	User       *UserSession `json:"user,omitempty"`
	LastSeenAt time.Time    `json:"last_seen_at"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewClient returns an unauthenticated client on the login form.
func NewClient(id string, now time.Time) *Client {
	return &Client{
		ClientID:   id,
		View:       ViewAuth,
		AuthMode:   AuthModeLogin,
		ActiveTab:  TabChat,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsAuthenticated returns true if a user session is attached.
func (c *Client) IsAuthenticated() bool {
	return c.User != nil && c.View == ViewApp
}

// Authenticate moves the client into the app view with the given session.
func (c *Client) Authenticate(user UserSession) {
	c.User = &user
	c.View = ViewApp
	c.ActiveTab = TabChat
}

// Logout clears the session and returns to the auth view on the chat tab.
// It is valid from any state.
func (c *Client) Logout() {
	c.User = nil
	c.View = ViewAuth
	c.ActiveTab = TabChat
}

// SwitchTab changes the active tab of an authenticated client.
func (c *Client) SwitchTab(tab Tab) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	c.ActiveTab = tab
	return nil
}

// SwitchAuthMode toggles between the login and register forms.
func (c *Client) SwitchAuthMode(mode AuthMode) error {
	if c.IsAuthenticated() {
		return ErrAlreadyAuthenticated
	}
	c.AuthMode = mode
	return nil
}
