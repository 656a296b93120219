package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/shared"
	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the whole database inside the process. State is lost on
// restart, which is the intended lifetime of tutor sessions.
const MemoryDSN = ":memory:"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes multi-statement writes to prevent SQLITE_BUSY
	retry   shared.RetryPolicy
}

// NewSQLite creates a new SQLite-backed repository. dbPath may be MemoryDSN,
// a "file:" URI, or a filesystem path.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	inMemory := isMemoryDSN(dbPath)

	dsn := dbPath
	if !inMemory && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if inMemory {
		// Every connection to ":memory:" is a separate database, so pin one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS clients (
		client_id TEXT PRIMARY KEY,
		view TEXT NOT NULL,
		auth_mode TEXT NOT NULL,
		active_tab TEXT NOT NULL,
		display_name TEXT,
		email TEXT,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_clients_last_seen ON clients(last_seen_at);

	CREATE TABLE IF NOT EXISTS progress (
		client_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
		PRIMARY KEY (client_id, topic)
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		client_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		topics TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_client ON messages(client_id, seq);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const clientColumns = `client_id, view, auth_mode, active_tab, display_name, email,
		       last_seen_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var c domain.Client
	var view, authMode, tab string
	var displayName, email sql.NullString
	var lastSeen, createdAt, updatedAt int64

	if err := row.Scan(
		&c.ClientID, &view, &authMode, &tab, &displayName, &email,
		&lastSeen, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	c.View = domain.View(view)
	c.AuthMode = domain.AuthMode(authMode)
	c.ActiveTab = domain.Tab(tab)
	if displayName.Valid || email.Valid {
		c.User = &domain.UserSession{DisplayName: displayName.String, Email: email.String}
	}
	c.LastSeenAt = time.UnixMilli(lastSeen)
	c.CreatedAt = time.UnixMilli(createdAt)
	c.UpdatedAt = time.UnixMilli(updatedAt)
	return &c, nil
}

// GetClient retrieves a client by ID.
func (s *SQLiteStore) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE client_id = ?`, clientID)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan client row: %w", err)
	}
	return c, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertClient(ctx context.Context, ex execer, c *domain.Client) error {
	query := `
	INSERT INTO clients (client_id, view, auth_mode, active_tab, display_name, email,
	                     last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(client_id) DO UPDATE SET
		view = excluded.view,
		auth_mode = excluded.auth_mode,
		active_tab = excluded.active_tab,
		display_name = excluded.display_name,
		email = excluded.email,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	var displayName, email any
	if c.User != nil {
		displayName = c.User.DisplayName
		email = c.User.Email
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.LastSeenAt.IsZero() {
		c.LastSeenAt = now
	}
	c.UpdatedAt = now

	_, err := ex.ExecContext(ctx, query,
		c.ClientID, string(c.View), string(c.AuthMode), string(c.ActiveTab),
		displayName, email,
		c.LastSeenAt.UnixMilli(), c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}
	return nil
}

// UpsertClient creates or updates a client record.
func (s *SQLiteStore) UpsertClient(ctx context.Context, c *domain.Client) error {
	return upsertClient(ctx, s.db, c)
}

// UpdateLastSeen updates the last_seen_at timestamp for a client.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, clientID string, lastSeen time.Time) error {
	query := `UPDATE clients SET last_seen_at = ?, updated_at = ? WHERE client_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.UnixMilli(), time.Now().UnixMilli(), clientID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "client_id", clientID)
	}
	return nil
}

// withTx runs fn inside a transaction, retrying the whole transaction on
// SQLite conflicts.
func (s *SQLiteStore) withTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return shared.RetryOnConflict(ctx, s.retry, name, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", name, err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("rollback failed", "op", name, "error", rbErr)
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		return nil
	})
}

func deleteSessionData(ctx context.Context, tx *sql.Tx, clientID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM progress WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

func saveProgress(ctx context.Context, tx *sql.Tx, clientID string, p domain.Progress) error {
	query := `
	INSERT INTO progress (client_id, topic, score) VALUES (?, ?, ?)
	ON CONFLICT(client_id, topic) DO UPDATE SET score = excluded.score`
	for _, t := range domain.AllTopics() {
		if _, err := tx.ExecContext(ctx, query, clientID, t.String(), p.Score(t)); err != nil {
			return fmt.Errorf("save progress for %s: %w", t, err)
		}
	}
	return nil
}

func insertMessage(ctx context.Context, ex execer, clientID string, m domain.Message) error {
	query := `
	INSERT INTO messages (id, client_id, sender, text, topics, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, query,
		m.ID, clientID, string(m.Sender), m.Text, domain.JoinTopics(m.Topics), m.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// BeginSession stores an authenticated client with fresh progress and transcript.
func (s *SQLiteStore) BeginSession(ctx context.Context, c *domain.Client, p domain.Progress, greeting domain.Message) error {
	return s.withTx(ctx, "begin session", func(tx *sql.Tx) error {
		if err := upsertClient(ctx, tx, c); err != nil {
			return err
		}
		if err := deleteSessionData(ctx, tx, c.ClientID); err != nil {
			return err
		}
		if err := saveProgress(ctx, tx, c.ClientID, p); err != nil {
			return err
		}
		return insertMessage(ctx, tx, c.ClientID, greeting)
	})
}

// EndSession stores a signed-out client and discards its session data.
func (s *SQLiteStore) EndSession(ctx context.Context, c *domain.Client) error {
	return s.withTx(ctx, "end session", func(tx *sql.Tx) error {
		if err := upsertClient(ctx, tx, c); err != nil {
			return err
		}
		return deleteSessionData(ctx, tx, c.ClientID)
	})
}

// GetProgress returns the client's stored progress.
func (s *SQLiteStore) GetProgress(ctx context.Context, clientID string) (domain.Progress, bool, error) {
	var p domain.Progress

	rows, err := s.db.QueryContext(ctx, `SELECT topic, score FROM progress WHERE client_id = ?`, clientID)
	if err != nil {
		return p, false, fmt.Errorf("query progress: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close progress rows", "error", closeErr)
		}
	}()

	found := false
	for rows.Next() {
		var key string
		var score int
		if err := rows.Scan(&key, &score); err != nil {
			return p, false, fmt.Errorf("scan progress row: %w", err)
		}
		topic, err := domain.ParseTopic(key)
		if err != nil {
			return p, false, fmt.Errorf("stored progress: %w", err)
		}
		p, _ = p.Apply(topic, score)
		found = true
	}
	if err := rows.Err(); err != nil {
		return p, false, fmt.Errorf("iterate progress: %w", err)
	}
	return p, found, nil
}

// AppendMessage adds a message to the client's transcript.
func (s *SQLiteStore) AppendMessage(ctx context.Context, clientID string, m domain.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return shared.RetryOnConflict(ctx, s.retry, "append message", func() error {
		return insertMessage(ctx, s.db, clientID, m)
	})
}

// SaveExchange stores new progress and the assistant reply in one transaction.
func (s *SQLiteStore) SaveExchange(ctx context.Context, clientID string, p domain.Progress, reply domain.Message) error {
	return s.withTx(ctx, "save exchange", func(tx *sql.Tx) error {
		if err := saveProgress(ctx, tx, clientID, p); err != nil {
			return err
		}
		return insertMessage(ctx, tx, clientID, reply)
	})
}

// ListMessages returns the transcript in insertion order.
func (s *SQLiteStore) ListMessages(ctx context.Context, clientID string) ([]domain.Message, error) {
	query := `
		SELECT id, sender, text, topics, created_at
		FROM messages WHERE client_id = ? ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		var sender, topics string
		var createdAt int64
		if err := rows.Scan(&m.ID, &sender, &m.Text, &topics, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Sender = domain.Sender(sender)
		m.Timestamp = time.UnixMilli(createdAt)
		if m.Topics, err = domain.SplitTopics(topics); err != nil {
			return nil, fmt.Errorf("stored message %s: %w", m.ID, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// GetIdleClients retrieves clients whose last activity is older than ttl.
func (s *SQLiteStore) GetIdleClients(ctx context.Context, ttl time.Duration) ([]*domain.Client, error) {
	threshold := time.Now().Add(-ttl).UnixMilli()
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE last_seen_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query idle clients: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close idle client rows", "error", closeErr)
		}
	}()

	var clients []*domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idle client row: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate idle clients: %w", err)
	}
	return clients, nil
}

// DeleteClient removes a client together with its progress and transcript.
func (s *SQLiteStore) DeleteClient(ctx context.Context, clientID string) error {
	return s.withTx(ctx, "delete client", func(tx *sql.Tx) error {
		if err := deleteSessionData(ctx, tx, clientID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE client_id = ?`, clientID); err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		return nil
	})
}

// Ensure SQLiteStore implements Repository.
var _ Repository = (*SQLiteStore)(nil)
