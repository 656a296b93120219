package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/shared"
	"github.com/ashureev/tutorcito/internal/store"
)

func newTestSessions(t *testing.T) (*Sessions, *store.SQLiteStore) {
	t.Helper()
	repo, err := store.NewSQLite(store.MemoryDSN)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return NewSessions(repo, StubAuthenticator{}, nil, nil), repo
}

func TestLoginStartsSession(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestSessions(t)

	client, err := s.Login(ctx, "c1", LoginRequest{Email: "ana@riwi.io", Password: "x"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if client.View != domain.ViewApp || client.ActiveTab != domain.TabChat {
		t.Errorf("Expected app view on chat tab, got %s/%s", client.View, client.ActiveTab)
	}

	progress, found, err := repo.GetProgress(ctx, "c1")
	if err != nil || !found {
		t.Fatalf("Expected progress, found=%v err=%v", found, err)
	}
	if progress != domain.InitialProgress() {
		t.Errorf("Expected initial progress, got %v", progress)
	}
	msgs, _ := repo.ListMessages(ctx, "c1")
	if len(msgs) != 1 || msgs[0].Text != domain.GreetingText {
		t.Errorf("Expected greeting transcript, got %+v", msgs)
	}
}

func TestRegisterMismatchKeepsAuthView(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestSessions(t)

	client, err := s.Register(ctx, "c1", RegisterRequest{
		Name: "Ana", Email: "ana@riwi.io", Password: "a", ConfirmPassword: "b",
	})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Expected ErrPasswordMismatch, got %v", err)
	}
	if client.View != domain.ViewAuth {
		t.Errorf("Expected auth view, got %s", client.View)
	}
	if _, found, _ := repo.GetProgress(ctx, "c1"); found {
		t.Error("Expected no session after mismatch")
	}
}

func TestLoginTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessions(t)

	if _, err := s.Login(ctx, "c1", LoginRequest{Email: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := s.Login(ctx, "c1", LoginRequest{Email: "a@b.c", Password: "x"}); !errors.Is(err, domain.ErrAlreadyAuthenticated) {
		t.Errorf("Expected ErrAlreadyAuthenticated, got %v", err)
	}
}

func TestLogoutDiscardsSession(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestSessions(t)

	var loggedOut string
	s.OnLogout(func(clientID string) { loggedOut = clientID })

	if _, err := s.Login(ctx, "c1", LoginRequest{Email: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := s.SwitchTab(ctx, "c1", domain.TabDashboard); err != nil {
		t.Fatalf("SwitchTab failed: %v", err)
	}

	client, err := s.Logout(ctx, "c1")
	if err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if client.View != domain.ViewAuth || client.ActiveTab != domain.TabChat || client.User != nil {
		t.Errorf("Expected signed-out client on chat tab, got %+v", client)
	}
	if loggedOut != "c1" {
		t.Errorf("Expected logout callback for c1, got %q", loggedOut)
	}
	if _, found, _ := repo.GetProgress(ctx, "c1"); found {
		t.Error("Expected progress to be discarded")
	}
	if msgs, _ := repo.ListMessages(ctx, "c1"); len(msgs) != 0 {
		t.Errorf("Expected empty transcript, got %d messages", len(msgs))
	}
}

func TestLogoutWhenSignedOut(t *testing.T) {
	s, _ := newTestSessions(t)
	if _, err := s.Logout(context.Background(), "c1"); err != nil {
		t.Errorf("Expected logout to succeed from any state, got %v", err)
	}
}

func TestViewGuards(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessions(t)

	if _, err := s.SwitchTab(ctx, "c1", domain.TabDashboard); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
	client, err := s.SwitchAuthMode(ctx, "c1", domain.AuthModeRegister)
	if err != nil {
		t.Fatalf("SwitchAuthMode failed: %v", err)
	}
	if client.AuthMode != domain.AuthModeRegister {
		t.Errorf("Expected register mode, got %s", client.AuthMode)
	}

	if _, err := s.Login(ctx, "c1", LoginRequest{Email: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := s.SwitchAuthMode(ctx, "c1", domain.AuthModeLogin); !errors.Is(err, domain.ErrAlreadyAuthenticated) {
		t.Errorf("Expected ErrAlreadyAuthenticated, got %v", err)
	}
}

func TestSwitchTabDuringReply(t *testing.T) {
	ctx := context.Background()
	repo, err := store.NewSQLite(store.MemoryDSN)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer repo.Close()
	locks := &shared.ClientLocks{}
	s := NewSessions(repo, StubAuthenticator{}, locks, nil)

	if _, err := s.Login(ctx, "c1", LoginRequest{Email: "ana@riwi.io", Password: "x"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	unlock, ok := locks.TryLockExchange("c1")
	if !ok {
		t.Fatal("Expected exchange slot to be free")
	}
	defer unlock()

	done := make(chan error, 1)
	go func() {
		_, err := s.SwitchTab(ctx, "c1", domain.TabDashboard)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("SwitchTab failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("SwitchTab waited for the reply in flight")
	}
}

func TestLoginDelayDoesNotHoldLocks(t *testing.T) {
	ctx := context.Background()
	repo, err := store.NewSQLite(store.MemoryDSN)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer repo.Close()
	locks := &shared.ClientLocks{}
	s := NewSessions(repo, StubAuthenticator{Delay: 300 * time.Millisecond}, locks, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Login(ctx, "c1", LoginRequest{Email: "ana@riwi.io", Password: "x"})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	unlock, ok := locks.TryLockExchange("c1")
	if !ok {
		t.Fatal("Expected exchange slot to be free during the auth delay")
	}
	unlock()

	if err := <-done; err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func TestConcurrentLoginsStartOneSession(t *testing.T) {
	ctx := context.Background()
	repo, err := store.NewSQLite(store.MemoryDSN)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer repo.Close()
	s := NewSessions(repo, StubAuthenticator{Delay: 20 * time.Millisecond}, nil, nil)

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := s.Login(ctx, "c1", LoginRequest{Email: "ana@riwi.io", Password: "x"})
			errs <- err
		}()
	}

	succeeded, rejected := 0, 0
	for range 2 {
		switch err := <-errs; {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrAlreadyAuthenticated):
			rejected++
		default:
			t.Errorf("Unexpected login error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Errorf("Expected one login and one rejection, got %d/%d", succeeded, rejected)
	}
}
