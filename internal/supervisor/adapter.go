package supervisor

import (
	"context"
	"fmt"
)

// Collaborator shapes commonly found in existing backends. Adapt wraps any
// of them so they can drive the chat UI without being rewritten against the
// Stream contract.

// AnalyzeResponder is a backend with separate analysis and response phases.
type AnalyzeResponder interface {
	Analyze(ctx context.Context, input string) (string, error)
	Respond(ctx context.Context, input, analysis string) (string, error)
}

// CallbackResponder is a backend that reports progress through a callback
// while computing a single response.
type CallbackResponder interface {
	Process(ctx context.Context, input string, onThought func(string)) (string, error)
}

// Responder is the simplest backend shape: one call, one answer, no
// intermediate visibility.
type Responder interface {
	Response(ctx context.Context, input string) (string, error)
}

// Adapt wraps a collaborator in a Supervisor. The shapes are tried in order
// of how much intermediate detail they can surface; an unrecognized type is
// an error rather than a silent no-op supervisor.
func Adapt(v any) (Supervisor, error) {
	switch c := v.(type) {
	case AnalyzeResponder:
		return adaptAnalyzeResponder(c), nil
	case CallbackResponder:
		return adaptCallbackResponder(c), nil
	case Responder:
		return adaptResponder(c), nil
	default:
		return nil, fmt.Errorf("supervisor: unsupported collaborator type %T", v)
	}
}

func adaptAnalyzeResponder(c AnalyzeResponder) Supervisor {
	return Func(func(ctx context.Context, input string) Stream {
		return Go(func(ctx context.Context, out chan<- Step) error {
			if err := send(ctx, out, Step{Thought: "Starting analysis..."}); err != nil {
				return err
			}
			analysis, err := c.Analyze(ctx, input)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			if err := send(ctx, out, Step{Thought: "Analysis complete: " + analysis}); err != nil {
				return err
			}
			if err := send(ctx, out, Step{Thought: "Generating response..."}); err != nil {
				return err
			}
			answer, err := c.Respond(ctx, input, analysis)
			if err != nil {
				return fmt.Errorf("respond: %w", err)
			}
			return send(ctx, out, Step{Answer: answer})
		})
	})
}

func adaptCallbackResponder(c CallbackResponder) Supervisor {
	return Func(func(ctx context.Context, input string) Stream {
		return Go(func(ctx context.Context, out chan<- Step) error {
			// Thoughts are forwarded live as the callback fires; a thought
			// that races a cancelled context is dropped, the error surfaces
			// from Process itself.
			onThought := func(thought string) {
				_ = send(ctx, out, Step{Thought: thought})
			}
			answer, err := c.Process(ctx, input, onThought)
			if err != nil {
				return fmt.Errorf("process: %w", err)
			}
			return send(ctx, out, Step{Answer: answer})
		})
	})
}

func adaptResponder(c Responder) Supervisor {
	return Func(func(ctx context.Context, input string) Stream {
		return Go(func(ctx context.Context, out chan<- Step) error {
			if err := send(ctx, out, Step{Thought: "Processing request..."}); err != nil {
				return err
			}
			answer, err := c.Response(ctx, input)
			if err != nil {
				return err
			}
			return send(ctx, out, Step{Answer: answer})
		})
	})
}
