// Package chat holds the transcript data model and the controller that
// drives a single conversation session.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a transcript message.
type Kind int

const (
	KindUser Kind = iota
	KindThought
	KindAnswer
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindThought:
		return "thought"
	case KindAnswer:
		return "answer"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is a single transcript entry. Immutable once created.
type Message struct {
	ID        string
	Kind      Kind
	Text      string
	CreatedAt time.Time
}

// NewMessage creates a message stamped with a fresh ID and the current time.
func NewMessage(kind Kind, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
