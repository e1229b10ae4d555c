// Package bridge runs a supervisor stream on a worker goroutine and
// republishes its steps as events on a channel a front-end can consume.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ai/mull/internal/supervisor"
)

// EventKind identifies what an event carries.
type EventKind int

const (
	// EventThought carries one intermediate reasoning message.
	EventThought EventKind = iota
	// EventAnswer carries the final answer. At most one per run.
	EventAnswer
	// EventError carries a failure. The run produced no answer.
	EventError
	// EventDone is always the last event of a run, after the answer or
	// error, and is emitted exactly once.
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventThought:
		return "thought"
	case EventAnswer:
		return "answer"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one item published by a run.
type Event struct {
	Kind EventKind
	Text string // thought or answer text
	Err  error  // set for EventError only
}

// DefaultBuffer is the event channel capacity used when Run is given a
// non-positive buffer size.
const DefaultBuffer = 64

// Run starts a worker goroutine that pulls the supervisor's stream for the
// given input and forwards each step, in order, on the returned channel.
//
// The sequence on the channel is zero or more EventThought, then either one
// EventAnswer or one EventError, then EventDone, then the channel closes.
// A stream that exhausts without producing an answer yields an EventError
// wrapping supervisor.ErrNoAnswer. The worker stops pulling once it has
// seen the answer. If ctx is cancelled the worker reports the cancellation
// as an EventError and still closes out with EventDone.
func Run(ctx context.Context, sup supervisor.Supervisor, input string, buf int) <-chan Event {
	if buf <= 0 {
		buf = DefaultBuffer
	}
	events := make(chan Event, buf)

	go func() {
		defer close(events)

		// Terminal events are plain sends, not ctx-gated: a cancelled
		// context must still surface as an error event before done, so a
		// consumer can always key the end of a run off that pair.
		err := pull(ctx, sup, input, events)
		if err != nil {
			events <- Event{Kind: EventError, Err: err}
		}
		events <- Event{Kind: EventDone}
	}()

	return events
}

// pull drains the stream into events. It returns nil after forwarding the
// answer and an error otherwise; clean exhaustion without an answer maps to
// supervisor.ErrNoAnswer.
func pull(ctx context.Context, sup supervisor.Supervisor, input string, events chan<- Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("supervisor panicked: %v", r)
		}
	}()

	stream := sup.Respond(ctx, input)
	for {
		step, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return supervisor.ErrNoAnswer
		}
		if err != nil {
			return err
		}

		if step.IsAnswer() {
			// The answer is terminal; deliver it unconditionally so it
			// cannot lose a select race against a cancelled context.
			events <- Event{Kind: EventAnswer, Text: step.Answer}
			return nil
		}
		if step.Thought != "" {
			if err := emit(ctx, events, Event{Kind: EventThought, Text: step.Thought}); err != nil {
				return err
			}
		}
	}
}

func emit(ctx context.Context, events chan<- Event, ev Event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
