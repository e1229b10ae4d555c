package tui

import "testing"

func TestFilterCommands(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/", commandNames(AvailableCommands())},
		{"/t", []string{"/thoughts"}},
		{"/th", []string{"/thoughts"}},
		{"/clear", []string{"/clear"}},
		{"/q", []string{"/quit"}},
		{"/nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := commandNames(filterCommands(tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("filterCommands(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("filterCommands(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterCommands_CaseInsensitive(t *testing.T) {
	got := filterCommands("/THOUGHTS")
	if len(got) != 1 || got[0].Name != "/thoughts" {
		t.Errorf("filterCommands(/THOUGHTS) = %v, want /thoughts", commandNames(got))
	}
}

func commandNames(cmds []Command) []string {
	var names []string
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	return names
}
