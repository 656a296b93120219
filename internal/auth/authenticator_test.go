package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStubLoginDerivesName(t *testing.T) {
	t.Parallel()

	user, err := StubAuthenticator{}.Login(context.Background(), LoginRequest{Email: "maria.lopez@riwi.io", Password: "x"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.DisplayName != "maria.lopez" {
		t.Errorf("Expected maria.lopez, got %q", user.DisplayName)
	}
	if user.Email != "maria.lopez@riwi.io" {
		t.Errorf("Expected email to be kept, got %q", user.Email)
	}
}

func TestStubLoginWithoutAt(t *testing.T) {
	t.Parallel()

	user, err := StubAuthenticator{}.Login(context.Background(), LoginRequest{Email: "maria", Password: "x"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.DisplayName != "maria" {
		t.Errorf("Expected maria, got %q", user.DisplayName)
	}
}

func TestStubRejectsMissingFields(t *testing.T) {
	t.Parallel()

	a := StubAuthenticator{}
	if _, err := a.Login(context.Background(), LoginRequest{Email: " "}); !errors.Is(err, ErrMissingField) {
		t.Errorf("Expected ErrMissingField for login, got %v", err)
	}
	if _, err := a.Register(context.Background(), RegisterRequest{Name: "Ana", Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrMissingField) {
		t.Errorf("Expected ErrMissingField for register, got %v", err)
	}
}

func TestStubRegisterMismatchSkipsDelay(t *testing.T) {
	t.Parallel()

	a := StubAuthenticator{Delay: time.Hour}
	start := time.Now()
	_, err := a.Register(context.Background(), RegisterRequest{
		Name: "Ana", Email: "ana@b.c", Password: "secret1", ConfirmPassword: "secret2",
	})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Expected ErrPasswordMismatch, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Expected mismatch to be reported without waiting")
	}
}

func TestStubRegisterUsesGivenName(t *testing.T) {
	t.Parallel()

	user, err := StubAuthenticator{}.Register(context.Background(), RegisterRequest{
		Name: "Ana Gómez", Email: "ana@b.c", Password: "s", ConfirmPassword: "s",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.DisplayName != "Ana Gómez" {
		t.Errorf("Expected Ana Gómez, got %q", user.DisplayName)
	}
}

func TestStubDelayHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StubAuthenticator{Delay: time.Hour}.Login(ctx, LoginRequest{Email: "a@b.c", Password: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestErrorNotification(t *testing.T) {
	t.Parallel()

	n := ErrorNotification(ErrPasswordMismatch)
	if n.Title != "Error" || n.Description != "Las contraseñas no coinciden." || n.Variant != VariantDestructive {
		t.Errorf("Unexpected notification: %+v", n)
	}
}
