// Package supervisor defines the contract between the chat UI and whatever
// produces its responses: a pull-based stream of intermediate thoughts
// followed by exactly one final answer. The package ships a mock supervisor
// for the demo, adapters for common collaborator shapes, and an
// Ollama-backed implementation.
package supervisor

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrNoAnswer reports a stream that ended without ever yielding an answer.
// Callers must treat such a stream as failed, not as quietly complete.
var ErrNoAnswer = errors.New("supervisor: stream ended without an answer")

// Step is one element of a response sequence. Exactly one field is
// non-empty: a Thought is an intermediate notice, an Answer terminates the
// sequence.
type Step struct {
	Thought string
	Answer  string
}

// IsAnswer reports whether this step terminates the sequence.
func (s Step) IsAnswer() bool {
	return s.Answer != ""
}

// Stream is a pull-based sequence of steps. Next blocks while the producer
// computes, returns io.EOF when the sequence is exhausted, and any other
// error when production failed. After an answer step or an error, all
// further calls return io.EOF or the same error.
type Stream interface {
	Next(ctx context.Context) (Step, error)
}

// Supervisor turns a user message into a stream of thoughts and one final
// answer. This is the sole integration point for real backends; their
// internals (intent parsing, retrieval, generation) are opaque here.
type Supervisor interface {
	Respond(ctx context.Context, input string) Stream
}

// Func adapts an ordinary function to the Supervisor interface.
type Func func(ctx context.Context, input string) Stream

// Respond implements Supervisor.
func (f Func) Respond(ctx context.Context, input string) Stream {
	return f(ctx, input)
}

// Steps returns a stream that replays a fixed sequence. Pulling past an
// answer step returns io.EOF even when more steps were supplied, keeping
// the one-terminal-answer contract. Useful for tests and wiring examples.
func Steps(steps ...Step) Stream {
	return &sliceStream{steps: steps}
}

type sliceStream struct {
	steps []Step
	pos   int
	done  bool
}

func (s *sliceStream) Next(ctx context.Context) (Step, error) {
	if err := ctx.Err(); err != nil {
		return Step{}, err
	}
	if s.done || s.pos >= len(s.steps) {
		return Step{}, io.EOF
	}
	st := s.steps[s.pos]
	s.pos++
	if st.IsAnswer() {
		s.done = true
	}
	return st, nil
}

// Go adapts an asynchronous producer to the pull contract. The producer
// runs on its own goroutine, started lazily on the first Next call, and
// publishes steps through out; its return value becomes the stream's
// terminal error (nil means clean exhaustion). This is the pattern for
// wrapping backends that are naturally push-based or task-based.
func Go(produce func(ctx context.Context, out chan<- Step) error) Stream {
	return &chanStream{produce: produce}
}

type chanStream struct {
	produce func(ctx context.Context, out chan<- Step) error
	once    sync.Once
	steps   chan Step
	errc    chan error
	err     error
}

func (s *chanStream) Next(ctx context.Context) (Step, error) {
	s.once.Do(func() {
		s.steps = make(chan Step)
		s.errc = make(chan error, 1)
		go func() {
			err := s.produce(ctx, s.steps)
			s.errc <- err
			close(s.steps)
		}()
	})

	if s.err != nil {
		return Step{}, s.err
	}

	select {
	case st, ok := <-s.steps:
		if !ok {
			if err := <-s.errc; err != nil {
				s.err = err
				return Step{}, err
			}
			s.err = io.EOF
			return Step{}, io.EOF
		}
		return st, nil
	case <-ctx.Done():
		s.err = ctx.Err()
		return Step{}, s.err
	}
}

// send delivers a step to out unless ctx is cancelled first.
func send(ctx context.Context, out chan<- Step, st Step) error {
	select {
	case out <- st:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
