package chat

// Transcript is an ordered, append-only sequence of messages. Insertion
// order is display order; entries are never reordered or mutated in place.
// The transcript is not synchronized: the owning controller (or a
// single-goroutine caller) serializes access.
type Transcript struct {
	messages []Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{messages: make([]Message, 0, 16)}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Len returns the number of messages, including hidden thoughts.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns a copy of all messages in insertion order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Visible returns a copy of the messages that should be rendered. When
// showThoughts is false, thought messages are filtered out; they remain in
// the transcript and reappear when the flag is flipped back.
func (t *Transcript) Visible(showThoughts bool) []Message {
	out := make([]Message, 0, len(t.messages))
	for _, m := range t.messages {
		if m.Kind == KindThought && !showThoughts {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Clear removes every message. The backing storage is released so a long
// session does not pin old conversation text.
func (t *Transcript) Clear() {
	t.messages = make([]Message, 0, 16)
}
