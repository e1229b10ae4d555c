package supervisor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// maxMockHistory bounds the mock's conversation memory (in exchanges).
const maxMockHistory = 10

// Mock is a stand-in supervisor for the demo. It walks through a scripted
// thinking sequence (intent classification, context gathering, knowledge
// search for question-like inputs) and finishes with a templated answer.
// Delay paces the steps so the UI visibly streams; it is illustrative only
// and tests run it at zero.
type Mock struct {
	Delay time.Duration

	mu      sync.Mutex
	history []exchange
}

type exchange struct {
	input  string
	answer string
}

// NewMock returns a mock supervisor with a demo-friendly step delay.
func NewMock() *Mock {
	return &Mock{Delay: 400 * time.Millisecond}
}

// Respond implements Supervisor.
func (m *Mock) Respond(ctx context.Context, input string) Stream {
	return Go(func(ctx context.Context, out chan<- Step) error {
		think := func(text string) error {
			if err := m.pause(ctx); err != nil {
				return err
			}
			return send(ctx, out, Step{Thought: text})
		}

		if err := think("Analyzing user input and parsing intent..."); err != nil {
			return err
		}

		intent := classifyIntent(input)
		if err := think("Detected intent: " + intent); err != nil {
			return err
		}

		if err := think(fmt.Sprintf("Gathering context from %d previous exchanges...", m.historyLen())); err != nil {
			return err
		}

		if intent == intentQuestion || intent == intentHelp {
			if err := think("Searching knowledge base for relevant information..."); err != nil {
				return err
			}
			if err := think("Found 3 relevant knowledge entries"); err != nil {
				return err
			}
		}

		for _, thought := range []string{
			"Considering the request in detail...",
			"Evaluating multiple response strategies...",
			"Preparing structured response...",
		} {
			if err := think(thought); err != nil {
				return err
			}
		}

		answer := m.composeAnswer(input, intent)
		m.remember(input, answer)

		if err := m.pause(ctx); err != nil {
			return err
		}
		return send(ctx, out, Step{Answer: answer})
	})
}

func (m *Mock) pause(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mock) historyLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

func (m *Mock) remember(input, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, exchange{input: input, answer: answer})
	if len(m.history) > maxMockHistory {
		m.history = m.history[len(m.history)-maxMockHistory:]
	}
}

func (m *Mock) composeAnswer(input, intent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I make of %q (intent: %s).\n\n", input, intent)
	b.WriteString("This is a mock response: a real supervisor would replace it with ")
	b.WriteString("output from its own pipeline, after considering the conversation ")
	b.WriteString("history and any retrieved context.\n")
	return b.String()
}

// Intent labels used by the mock's keyword classifier.
const (
	intentQuestion = "question"
	intentHelp     = "help_request"
	intentCreation = "creation"
	intentGeneral  = "general"
)

// classifyIntent buckets input by keyword, mirroring the kind of cheap
// heuristic a placeholder backend uses before real intent parsing exists.
func classifyIntent(input string) string {
	lower := strings.ToLower(input)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("question", "what", "how", "why", "when", "where"):
		return intentQuestion
	case contains("help", "assist", "support"):
		return intentHelp
	case contains("create", "generate", "make", "build"):
		return intentCreation
	default:
		return intentGeneral
	}
}
