package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ai/mull/internal/supervisor"
)

func scriptedController(steps ...supervisor.Step) *Controller {
	return NewController(Config{
		Supervisor: supervisor.Func(func(ctx context.Context, input string) supervisor.Stream {
			return supervisor.Steps(steps...)
		}),
		ShowThoughts: true,
	})
}

// finishRun applies every event of the in-flight run, as a front-end's
// event loop would.
func finishRun(t *testing.T, c *Controller) {
	t.Helper()

	events := c.Events()
	if events == nil {
		t.Fatal("no run in flight")
	}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Apply(ev)
		case <-timeout:
			t.Fatal("timed out waiting for run events")
		}
	}
}

func TestController_FullExchange(t *testing.T) {
	c := scriptedController(
		supervisor.Step{Thought: "t1"},
		supervisor.Step{Thought: "t2"},
		supervisor.Step{Answer: "the answer"},
	)

	if !c.Submit(context.Background(), "question") {
		t.Fatal("submit rejected")
	}
	if !c.Processing() {
		t.Error("processing flag not set after submit")
	}

	finishRun(t, c)

	if c.Processing() {
		t.Error("processing flag still set after the run finished")
	}

	msgs := c.Messages()
	wantKinds := []Kind{KindUser, KindThought, KindThought, KindAnswer}
	if len(msgs) != len(wantKinds) {
		t.Fatalf("got %d messages, want %d: %+v", len(msgs), len(wantKinds), msgs)
	}
	for i, k := range wantKinds {
		if msgs[i].Kind != k {
			t.Errorf("message[%d].Kind = %v, want %v", i, msgs[i].Kind, k)
		}
	}
	if msgs[0].Text != "question" || msgs[3].Text != "the answer" {
		t.Errorf("unexpected texts: %+v", msgs)
	}
}

func TestController_RejectsBlankInput(t *testing.T) {
	c := scriptedController(supervisor.Step{Answer: "a"})

	for _, input := range []string{"", "   ", "\n\t"} {
		if c.Submit(context.Background(), input) {
			t.Errorf("Submit(%q) accepted, want rejection", input)
		}
	}
	if c.Len() != 0 {
		t.Errorf("transcript length = %d after rejected submits, want 0", c.Len())
	}
}

func TestController_RejectsSubmitWhileProcessing(t *testing.T) {
	c := scriptedController(supervisor.Step{Answer: "a"})

	if !c.Submit(context.Background(), "first") {
		t.Fatal("first submit rejected")
	}
	if c.Submit(context.Background(), "second") {
		t.Error("second submit accepted while a run was in flight")
	}

	finishRun(t, c)

	// Idle again; submitting works.
	if !c.Submit(context.Background(), "third") {
		t.Error("submit rejected after the run finished")
	}
	finishRun(t, c)
}

func TestController_ThoughtVisibility(t *testing.T) {
	c := scriptedController(
		supervisor.Step{Thought: "hidden later"},
		supervisor.Step{Answer: "a"},
	)

	c.Submit(context.Background(), "q")
	finishRun(t, c)

	if got := len(c.Visible()); got != 3 {
		t.Fatalf("got %d visible messages with thoughts on, want 3", got)
	}

	c.SetShowThoughts(false)
	if got := len(c.Visible()); got != 2 {
		t.Errorf("got %d visible messages with thoughts off, want 2", got)
	}

	// Toggling back restores the thoughts; nothing was dropped.
	if on := c.ToggleThoughts(); !on {
		t.Error("toggle should have turned thoughts back on")
	}
	if got := len(c.Visible()); got != 3 {
		t.Errorf("got %d visible messages after toggling back, want 3", got)
	}
}

func TestController_ErrorBecomesErrorMessage(t *testing.T) {
	boom := errors.New("backend down")
	c := NewController(Config{
		Supervisor: supervisor.Func(func(ctx context.Context, input string) supervisor.Stream {
			return supervisor.Go(func(ctx context.Context, out chan<- supervisor.Step) error {
				return boom
			})
		}),
		ShowThoughts: true,
	})

	c.Submit(context.Background(), "q")
	finishRun(t, c)

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user then error: %+v", len(msgs), msgs)
	}
	if msgs[1].Kind != KindError {
		t.Errorf("message[1].Kind = %v, want %v", msgs[1].Kind, KindError)
	}
	if msgs[1].Text != boom.Error() {
		t.Errorf("error text = %q, want %q", msgs[1].Text, boom.Error())
	}
	if c.Processing() {
		t.Error("processing flag still set after an error run")
	}
}

func TestController_AnswerlessRun(t *testing.T) {
	c := scriptedController(supervisor.Step{Thought: "only thinking"})

	c.Submit(context.Background(), "q")
	finishRun(t, c)

	msgs := c.Messages()
	last := msgs[len(msgs)-1]
	if last.Kind != KindError {
		t.Errorf("last message kind = %v, want %v", last.Kind, KindError)
	}
}

func TestController_Clear(t *testing.T) {
	c := scriptedController(supervisor.Step{Answer: "a"})

	c.Submit(context.Background(), "q")
	finishRun(t, c)

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("transcript length = %d after clear, want 0", c.Len())
	}
	if c.Processing() {
		t.Error("processing flag set after clear")
	}
}

func TestController_ClearMidRun(t *testing.T) {
	// Clear works in any state: a run in flight is abandoned, the
	// transcript empties, and the controller is idle again.
	c := scriptedController(
		supervisor.Step{Thought: "t"},
		supervisor.Step{Answer: "a"},
	)

	if !c.Submit(context.Background(), "q") {
		t.Fatal("submit rejected")
	}
	events := c.Events()

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("transcript length = %d after mid-run clear, want 0", c.Len())
	}
	if c.Processing() {
		t.Error("processing flag still set after mid-run clear")
	}
	if c.Events() != nil {
		t.Error("events channel still exposed after mid-run clear")
	}

	// Leftover events from the abandoned run are ignored.
	timeout := time.After(5 * time.Second)
	for open := true; open; {
		select {
		case ev, ok := <-events:
			if !ok {
				open = false
				break
			}
			c.Apply(ev)
		case <-timeout:
			t.Fatal("timed out draining the abandoned run")
		}
	}
	if c.Len() != 0 {
		t.Errorf("transcript length = %d after applying stale events, want 0", c.Len())
	}

	// The controller accepts new work immediately.
	if !c.Submit(context.Background(), "again") {
		t.Error("submit rejected after mid-run clear")
	}
	finishRun(t, c)
	if got := c.Len(); got != 3 {
		t.Errorf("transcript length = %d after the new run, want 3", got)
	}
}

type recordingSink struct {
	kinds []Kind
}

func (s *recordingSink) Record(msg Message) {
	s.kinds = append(s.kinds, msg.Kind)
}

func TestController_SinkSeesEveryMessage(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(Config{
		Supervisor: supervisor.Func(func(ctx context.Context, input string) supervisor.Stream {
			return supervisor.Steps(
				supervisor.Step{Thought: "t"},
				supervisor.Step{Answer: "a"},
			)
		}),
		ShowThoughts: false, // hidden thoughts are still recorded
		Sink:         sink,
	})

	c.Submit(context.Background(), "q")
	finishRun(t, c)

	want := []Kind{KindUser, KindThought, KindAnswer}
	if len(sink.kinds) != len(want) {
		t.Fatalf("sink saw %d messages, want %d: %v", len(sink.kinds), len(want), sink.kinds)
	}
	for i, k := range want {
		if sink.kinds[i] != k {
			t.Errorf("sink kind[%d] = %v, want %v", i, sink.kinds[i], k)
		}
	}
}
