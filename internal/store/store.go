// Package store provides client state persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
)

// Repository defines the interface for holding per-client tutor state.
type Repository interface {
	// GetClient retrieves a client by ID. Returns nil, nil when it does not exist.
	GetClient(ctx context.Context, clientID string) (*domain.Client, error)

	// UpsertClient creates or updates a client's view state and session.
	UpsertClient(ctx context.Context, client *domain.Client) error

	// UpdateLastSeen updates the last_seen_at timestamp for a client.
	UpdateLastSeen(ctx context.Context, clientID string, lastSeen time.Time) error

	// BeginSession stores an authenticated client together with its starting
	// progress and the first transcript message, replacing any earlier state.
	BeginSession(ctx context.Context, client *domain.Client, progress domain.Progress, greeting domain.Message) error

	// EndSession stores a signed-out client and discards its progress and transcript.
	EndSession(ctx context.Context, client *domain.Client) error

	// GetProgress returns the client's progress. found is false when the client
	// has no active session.
	GetProgress(ctx context.Context, clientID string) (progress domain.Progress, found bool, err error)

	// AppendMessage adds a message to the end of the client's transcript.
	AppendMessage(ctx context.Context, clientID string, msg domain.Message) error

	// SaveExchange stores updated progress and an assistant reply atomically.
	SaveExchange(ctx context.Context, clientID string, progress domain.Progress, reply domain.Message) error

	// ListMessages returns the client's transcript in insertion order.
	ListMessages(ctx context.Context, clientID string) ([]domain.Message, error)

	// GetIdleClients returns clients not seen within ttl.
	GetIdleClients(ctx context.Context, ttl time.Duration) ([]*domain.Client, error)

	// DeleteClient removes a client and everything it owns.
	DeleteClient(ctx context.Context, clientID string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
