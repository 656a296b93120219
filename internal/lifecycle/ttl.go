// Package lifecycle discards the state of clients that have gone idle.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/metrics"
	"github.com/ashureev/tutorcito/internal/shared"
	"github.com/ashureev/tutorcito/internal/store"
)

// CleanupCallback is called for every client removed by the TTL worker.
type CleanupCallback func(clientID string)

// StartTTLWorker runs a background goroutine that periodically removes
// clients not seen within ttl, along with their session, progress and
// transcript.
func StartTTLWorker(ctx context.Context, repo store.Repository, locks *shared.ClientLocks, ttl, interval time.Duration, m *metrics.Metrics, onCleanup CleanupCallback) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				SweepIdleClients(ctx, repo, locks, ttl, m, onCleanup)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// SweepIdleClients performs one sweep and returns how many clients were
// removed. Each candidate is checked again under its session lock, so a
// client that became active after the idle query, or is mid-exchange, is
// kept. onCleanup runs after the client's rows are gone.
func SweepIdleClients(ctx context.Context, repo store.Repository, locks *shared.ClientLocks, ttl time.Duration, m *metrics.Metrics, onCleanup CleanupCallback) int {
	if locks == nil {
		locks = &shared.ClientLocks{}
	}

	idle, err := repo.GetIdleClients(ctx, ttl)
	if err != nil {
		slog.Error("TTL worker failed to get idle clients", "error", err)
		return 0
	}
	if len(idle) == 0 {
		return 0
	}

	slog.Info("TTL worker found idle clients", "count", len(idle))

	removed, signedIn := 0, 0
	for _, candidate := range idle {
		client, err := sweepClient(ctx, repo, locks, candidate.ClientID, ttl)
		if err != nil {
			if ctx.Err() != nil {
				slog.Debug("TTL worker canceled, cleanup may be incomplete", "client_id", candidate.ClientID, "error", err)
				break
			}
			slog.Warn("TTL worker failed to delete client", "error", err, "client_id", candidate.ClientID)
			continue
		}
		if client == nil {
			continue
		}

		if onCleanup != nil {
			onCleanup(client.ClientID)
		}
		removed++
		if client.IsAuthenticated() {
			signedIn++
		}
	}

	if m != nil {
		m.ClientsSwept.Add(float64(removed))
		m.ActiveSessions.Sub(float64(signedIn))
	}
	slog.Info("TTL worker cleanup completed", "cleaned", removed)
	return removed
}

// sweepClient deletes the client if it is still idle. It returns the deleted
// client, or nil when the client was kept or already gone.
func sweepClient(ctx context.Context, repo store.Repository, locks *shared.ClientLocks, clientID string, ttl time.Duration) (*domain.Client, error) {
	unlock := locks.LockSession(clientID)
	defer unlock()

	client, err := repo.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	if time.Since(client.LastSeenAt) < ttl {
		slog.Debug("TTL worker kept client active since the idle query", "client_id", clientID)
		return nil, nil
	}
	if err := repo.DeleteClient(ctx, clientID); err != nil {
		return nil, err
	}
	return client, nil
}
