package store

import (
	"context"
	"testing"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(MemoryDSN)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetClientMissing(t *testing.T) {
	s := newTestStore(t)
	c, err := s.GetClient(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if c != nil {
		t.Fatalf("Expected nil client, got %+v", c)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	c := domain.NewClient("client-1", now)
	if err := s.UpsertClient(ctx, c); err != nil {
		t.Fatalf("UpsertClient failed: %v", err)
	}
	if _, found, err := s.GetProgress(ctx, c.ClientID); err != nil || found {
		t.Fatalf("Expected no progress before login, found=%v err=%v", found, err)
	}

	c.Authenticate(domain.UserSession{DisplayName: "ana", Email: "ana@riwi.io"})
	if err := s.BeginSession(ctx, c, domain.InitialProgress(), domain.Greeting(now)); err != nil {
		t.Fatalf("BeginSession failed: %v", err)
	}

	got, err := s.GetClient(ctx, c.ClientID)
	if err != nil || got == nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if !got.IsAuthenticated() || got.User.DisplayName != "ana" {
		t.Errorf("Expected authenticated client, got %+v", got)
	}

	progress, found, err := s.GetProgress(ctx, c.ClientID)
	if err != nil || !found {
		t.Fatalf("GetProgress failed: found=%v err=%v", found, err)
	}
	if progress != domain.InitialProgress() {
		t.Errorf("Expected initial progress, got %v", progress.Map())
	}

	user := domain.NewMessage(domain.SenderUser, "quiero html", nil, now)
	if err := s.AppendMessage(ctx, c.ClientID, user); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	next, _ := progress.Apply(domain.TopicHTML, 10)
	reply := domain.NewMessage(domain.SenderAssistant, "ok", []domain.Topic{domain.TopicHTML}, now)
	if err := s.SaveExchange(ctx, c.ClientID, next, reply); err != nil {
		t.Fatalf("SaveExchange failed: %v", err)
	}

	msgs, err := s.ListMessages(ctx, c.ClientID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Text != domain.GreetingText || msgs[1].ID != user.ID || msgs[2].ID != reply.ID {
		t.Errorf("unexpected transcript order: %+v", msgs)
	}
	if len(msgs[2].Topics) != 1 || msgs[2].Topics[0] != domain.TopicHTML {
		t.Errorf("Expected html tag on reply, got %v", msgs[2].Topics)
	}

	progress, _, _ = s.GetProgress(ctx, c.ClientID)
	if progress.Score(domain.TopicHTML) != 35 {
		t.Errorf("Expected html=35, got %d", progress.Score(domain.TopicHTML))
	}

	c.Logout()
	if err := s.EndSession(ctx, c); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	msgs, _ = s.ListMessages(ctx, c.ClientID)
	if len(msgs) != 0 {
		t.Errorf("Expected transcript cleared, got %d messages", len(msgs))
	}
	if _, found, _ := s.GetProgress(ctx, c.ClientID); found {
		t.Error("Expected progress discarded after logout")
	}
	got, _ = s.GetClient(ctx, c.ClientID)
	if got.User != nil || got.View != domain.ViewAuth {
		t.Errorf("Expected signed-out client, got %+v", got)
	}
}

func TestIdleClientsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := domain.NewClient("old", time.Now().Add(-2*time.Hour))
	fresh := domain.NewClient("fresh", time.Now())
	for _, c := range []*domain.Client{old, fresh} {
		if err := s.UpsertClient(ctx, c); err != nil {
			t.Fatalf("UpsertClient failed: %v", err)
		}
	}

	idle, err := s.GetIdleClients(ctx, time.Hour)
	if err != nil {
		t.Fatalf("GetIdleClients failed: %v", err)
	}
	if len(idle) != 1 || idle[0].ClientID != "old" {
		t.Fatalf("Expected only old client idle, got %+v", idle)
	}

	if err := s.DeleteClient(ctx, "old"); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	if c, _ := s.GetClient(ctx, "old"); c != nil {
		t.Errorf("Expected client deleted, got %+v", c)
	}
}

func TestUpdateLastSeen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := domain.NewClient("client-1", time.Now().Add(-time.Hour))
	if err := s.UpsertClient(ctx, c); err != nil {
		t.Fatalf("UpsertClient failed: %v", err)
	}
	now := time.Now()
	if err := s.UpdateLastSeen(ctx, c.ClientID, now); err != nil {
		t.Fatalf("UpdateLastSeen failed: %v", err)
	}
	got, _ := s.GetClient(ctx, c.ClientID)
	if got.LastSeenAt.UnixMilli() != now.UnixMilli() {
		t.Errorf("Expected last seen %v, got %v", now, got.LastSeenAt)
	}
	if err := s.UpdateLastSeen(ctx, "missing", now); err != nil {
		t.Errorf("Expected no error for missing client, got %v", err)
	}
}
