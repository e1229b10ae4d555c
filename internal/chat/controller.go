package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/ai/mull/internal/bridge"
	"github.com/ai/mull/internal/supervisor"
)

// Sink receives every message appended to the transcript, in order. A nil
// sink is valid and records nothing.
type Sink interface {
	Record(msg Message)
}

// Config configures a Controller.
type Config struct {
	// Supervisor produces the thought and answer stream for each input.
	Supervisor supervisor.Supervisor
	// ShowThoughts is the initial visibility of thought messages.
	ShowThoughts bool
	// Buffer is the event channel capacity per run. Zero means
	// bridge.DefaultBuffer.
	Buffer int
	// Sink, if set, is told about every appended message.
	Sink Sink
}

// Controller owns the conversation state shared by the front-ends: the
// transcript, the thought visibility toggle, and the processing flag for
// the in-flight run. All methods are safe for concurrent use.
type Controller struct {
	mu           sync.Mutex
	cfg          Config
	transcript   *Transcript
	showThoughts bool
	processing   bool
	events       <-chan bridge.Event
}

func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:          cfg,
		transcript:   NewTranscript(),
		showThoughts: cfg.ShowThoughts,
	}
}

// Submit starts a run for the given input. It reports false without side
// effects when the input is blank or a run is already in flight. On
// success the user message is already in the transcript and Events returns
// the new run's channel.
func (c *Controller) Submit(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.processing {
		return false
	}

	c.append(NewMessage(KindUser, input))
	c.processing = true
	c.events = bridge.Run(ctx, c.cfg.Supervisor, input, c.cfg.Buffer)
	return true
}

// Events returns the event channel of the in-flight run, or nil when idle.
func (c *Controller) Events() <-chan bridge.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Apply folds one run event into the transcript. EventDone clears the
// processing flag; every run ends with it, so after applying a full run
// the controller is idle again. Events from a run abandoned by Clear are
// ignored.
func (c *Controller) Apply(ev bridge.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.processing {
		return
	}

	switch ev.Kind {
	case bridge.EventThought:
		c.append(NewMessage(KindThought, ev.Text))
	case bridge.EventAnswer:
		c.append(NewMessage(KindAnswer, ev.Text))
	case bridge.EventError:
		text := "something went wrong"
		if ev.Err != nil {
			text = ev.Err.Error()
		}
		c.append(NewMessage(KindError, text))
	case bridge.EventDone:
		c.processing = false
		c.events = nil
	}
}

// append adds a message and forwards it to the sink. Callers hold c.mu.
func (c *Controller) append(msg Message) {
	c.transcript.Append(msg)
	if c.cfg.Sink != nil {
		c.cfg.Sink.Record(msg)
	}
}

// Processing reports whether a run is in flight.
func (c *Controller) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

// ShowThoughts reports the current thought visibility.
func (c *Controller) ShowThoughts() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showThoughts
}

// SetShowThoughts sets thought visibility. The transcript itself is
// untouched; hidden thoughts reappear when visibility is restored.
func (c *Controller) SetShowThoughts(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showThoughts = show
}

// ToggleThoughts flips thought visibility and returns the new value.
func (c *Controller) ToggleThoughts() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showThoughts = !c.showThoughts
	return c.showThoughts
}

// Visible returns the messages to render under the current visibility.
func (c *Controller) Visible() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Visible(c.showThoughts)
}

// Messages returns a copy of the full transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}

// Len returns the transcript length, hidden thoughts included.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Len()
}

// Clear empties the transcript and returns the controller to idle. Safe in
// any state: a run still in flight is abandoned, its remaining events are
// dropped by Apply, and its worker drains into the buffered channel.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transcript.Clear()
	c.processing = false
	c.events = nil
}
