package supervisor

import (
	"context"
	"strings"

	"github.com/ai/mull/internal/ollama"
)

// DefaultSystemPrompt is the system message the Ollama supervisor sends
// when none is configured.
const DefaultSystemPrompt = "You are a helpful assistant. Think through the " +
	"problem before answering, then give a clear, concise answer."

// Ollama adapts the streaming Ollama chat client to the Supervisor
// contract: thinking chunks become thought steps, content chunks accumulate
// into the single final answer.
type Ollama struct {
	client *ollama.Client
	system string
}

// NewOllama creates an Ollama-backed supervisor. An empty systemPrompt
// falls back to DefaultSystemPrompt.
func NewOllama(client *ollama.Client, systemPrompt string) *Ollama {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Ollama{client: client, system: systemPrompt}
}

// Respond implements Supervisor.
func (o *Ollama) Respond(ctx context.Context, input string) Stream {
	return Go(func(ctx context.Context, out chan<- Step) error {
		messages := []ollama.Message{
			{Role: "system", Content: o.system},
			{Role: "user", Content: input},
		}

		ch, err := o.client.ChatStream(ctx, messages)
		if err != nil {
			return err
		}

		var pending strings.Builder // buffered thinking not yet emitted
		var answer strings.Builder

		// Raw thinking tokens are too fine-grained for one message per
		// thought; coalesce and emit on paragraph boundaries.
		flushParagraphs := func(final bool) error {
			text := pending.String()
			for {
				i := strings.Index(text, "\n\n")
				if i < 0 {
					break
				}
				para := strings.TrimSpace(text[:i])
				text = text[i+2:]
				if para == "" {
					continue
				}
				if err := send(ctx, out, Step{Thought: para}); err != nil {
					return err
				}
			}
			pending.Reset()
			if final {
				if rest := strings.TrimSpace(text); rest != "" {
					return send(ctx, out, Step{Thought: rest})
				}
				return nil
			}
			pending.WriteString(text)
			return nil
		}

		for chunk := range ch {
			if chunk.Error != nil {
				return chunk.Error
			}
			if t := chunk.Response.Message.Thinking; t != "" {
				pending.WriteString(t)
				if err := flushParagraphs(false); err != nil {
					return err
				}
			}
			if c := chunk.Response.Message.Content; c != "" {
				answer.WriteString(c)
			}
		}

		if err := flushParagraphs(true); err != nil {
			return err
		}

		// An empty final answer leaves the stream answerless; the consumer
		// turns that exhaustion into ErrNoAnswer.
		final := strings.TrimSpace(answer.String())
		if final == "" {
			return nil
		}
		return send(ctx, out, Step{Answer: final})
	})
}
