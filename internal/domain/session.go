package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single entry in a client's chat transcript. Messages are
// append-only and never edited after creation.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Topics    []Topic   `json:"topics,omitempty"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(sender Sender, text string, topics []Topic, now time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Text:      text,
		Sender:    sender,
		Timestamp: now,
		Topics:    topics,
	}
}

// GreetingText opens every new transcript.
const GreetingText = "¡Hola! Soy tu asistente de aprendizaje de tecnologías web. Puedo ayudarte con HTML, CSS y JavaScript. ¿En qué te gustaría mejorar hoy?"

// Greeting returns the assistant message that seeds a fresh transcript.
func Greeting(now time.Time) Message {
	return NewMessage(SenderAssistant, GreetingText, AllTopics(), now)
}
