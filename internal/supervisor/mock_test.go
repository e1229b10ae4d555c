package supervisor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func newTestMock() *Mock {
	m := NewMock()
	m.Delay = 0
	return m
}

func TestMock_ThoughtsThenAnswer(t *testing.T) {
	m := newTestMock()

	steps, err := drain(context.Background(), m.Respond(context.Background(), "hello there"))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("terminal error = %v, want io.EOF", err)
	}
	if len(steps) < 2 {
		t.Fatalf("got %d steps, want thoughts followed by an answer", len(steps))
	}

	for i, st := range steps[:len(steps)-1] {
		if st.Thought == "" || st.Answer != "" {
			t.Errorf("step[%d] = %+v, want a thought", i, st)
		}
	}
	last := steps[len(steps)-1]
	if !last.IsAnswer() {
		t.Errorf("last step = %+v, want the answer", last)
	}
	if !strings.Contains(last.Answer, "hello there") {
		t.Errorf("answer %q should reference the input", last.Answer)
	}
}

func TestMock_QuestionTriggersKnowledgeSearch(t *testing.T) {
	m := newTestMock()

	steps, _ := drain(context.Background(), m.Respond(context.Background(), "what is the weather"))

	found := false
	for _, st := range steps {
		if strings.Contains(st.Thought, "knowledge base") {
			found = true
		}
	}
	if !found {
		t.Error("question intent should include a knowledge search thought")
	}

	steps, _ = drain(context.Background(), m.Respond(context.Background(), "good morning"))
	for _, st := range steps {
		if strings.Contains(st.Thought, "knowledge base") {
			t.Error("general intent should not search the knowledge base")
		}
	}
}

func TestMock_HistoryIsBounded(t *testing.T) {
	m := newTestMock()

	for i := 0; i < maxMockHistory+5; i++ {
		if _, err := drain(context.Background(), m.Respond(context.Background(), "ping")); !errors.Is(err, io.EOF) {
			t.Fatalf("exchange %d: terminal error = %v, want io.EOF", i, err)
		}
	}

	if got := m.historyLen(); got != maxMockHistory {
		t.Errorf("history length = %d, want %d", got, maxMockHistory)
	}
}

func TestMock_Cancellation(t *testing.T) {
	m := newTestMock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := drain(ctx, m.Respond(ctx, "hello"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("terminal error = %v, want context.Canceled", err)
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"what time is it", intentQuestion},
		{"How does this work?", intentQuestion},
		{"please help me out", intentHelp},
		{"can you assist with this", intentHelp},
		{"create a summary", intentCreation},
		{"build me a plan", intentCreation},
		{"good morning", intentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := classifyIntent(tt.input); got != tt.want {
				t.Errorf("classifyIntent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
