//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashureev/tutorcito/internal/auth"
	"github.com/ashureev/tutorcito/internal/domain"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusTeapot, "nope")

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", w.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "nope" {
		t.Errorf("Expected error=nope, got %v", got["error"])
	}
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{auth.ErrPasswordMismatch, http.StatusBadRequest},
		{auth.ErrMissingField, http.StatusBadRequest},
		{domain.ErrUnknownTab, http.StatusBadRequest},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{domain.ErrAlreadyAuthenticated, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeError(w, tt.err)
		if w.Code != tt.status {
			t.Errorf("%v: expected status %d, got %d", tt.err, tt.status, w.Code)
		}
	}
}

func TestWriteErrorIncludesNotification(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, auth.ErrPasswordMismatch)

	var got struct {
		Notification auth.Notification `json:"notification"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Notification.Variant != auth.VariantDestructive {
		t.Errorf("Expected destructive notification, got %+v", got.Notification)
	}
}
