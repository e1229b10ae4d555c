package chat

import "testing"

func TestTranscript_AppendPreservesOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewMessage(KindUser, "question"))
	tr.Append(NewMessage(KindThought, "thinking"))
	tr.Append(NewMessage(KindAnswer, "answer"))

	msgs := tr.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	wantKinds := []Kind{KindUser, KindThought, KindAnswer}
	for i, k := range wantKinds {
		if msgs[i].Kind != k {
			t.Errorf("message[%d].Kind = %v, want %v", i, msgs[i].Kind, k)
		}
	}
}

func TestTranscript_VisibleFiltersThoughts(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewMessage(KindUser, "q"))
	tr.Append(NewMessage(KindThought, "t1"))
	tr.Append(NewMessage(KindThought, "t2"))
	tr.Append(NewMessage(KindAnswer, "a"))

	visible := tr.Visible(false)
	if len(visible) != 2 {
		t.Fatalf("got %d visible messages, want 2", len(visible))
	}
	if visible[0].Kind != KindUser || visible[1].Kind != KindAnswer {
		t.Errorf("visible = %+v, want user then answer", visible)
	}

	// Filtering is a view; the underlying transcript keeps everything.
	if tr.Len() != 4 {
		t.Errorf("transcript length = %d after filtering, want 4", tr.Len())
	}
	if all := tr.Visible(true); len(all) != 4 {
		t.Errorf("got %d messages with thoughts shown, want 4", len(all))
	}
}

func TestTranscript_MessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewMessage(KindUser, "q"))

	msgs := tr.Messages()
	msgs[0].Text = "mutated"

	if got := tr.Messages()[0].Text; got != "q" {
		t.Errorf("transcript text = %q after caller mutation, want %q", got, "q")
	}
}

func TestTranscript_Clear(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewMessage(KindUser, "q"))
	tr.Append(NewMessage(KindAnswer, "a"))

	tr.Clear()
	if tr.Len() != 0 {
		t.Errorf("length = %d after clear, want 0", tr.Len())
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUser, "user"},
		{KindThought, "thought"},
		{KindAnswer, "answer"},
		{KindError, "error"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
