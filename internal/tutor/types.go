// Package tutor implements the simulated AI tutor: the keyword reply engine,
// the chat exchange service and its HTTP streaming surface.
package tutor

import (
	"errors"
	"time"

	"github.com/ashureev/tutorcito/internal/domain"
)

// ErrReplyInProgress is returned when a client sends a message while the
// previous reply is still pending.
var ErrReplyInProgress = errors.New("reply in progress")

// ChatRequest represents a chat submission.
type ChatRequest struct {
	Message  string `json:"message"`
	ClientID string `json:"-"`
}

// EventType categorizes chat events.
type EventType string

const (
	// EventUserMessage echoes the stored learner message.
	EventUserMessage EventType = "user_message"
	// EventTyping signals that the assistant reply is pending.
	EventTyping EventType = "typing"
	// EventAssistantMessage carries the reply and the updated progress.
	EventAssistantMessage EventType = "assistant_message"
)

// ChatEvent is one step of a chat exchange.
type ChatEvent struct {
	Type     EventType        `json:"type"`
	Message  *domain.Message  `json:"message,omitempty"`
	Progress *domain.Progress `json:"progress,omitempty"`
	Branch   Branch           `json:"branch,omitempty"`
}

// Config holds tutor configuration.
type Config struct {
	// ReplyDelay is the cosmetic pause before the assistant answers.
	ReplyDelay time.Duration
}
