package roomchat

import (
	"testing"
	"time"
)

func newFixedTranscript() *TextTranscript {
	tt := NewTextTranscript()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tt.now = func() time.Time { return fixed }
	return tt
}

func TestTextTranscriptResetAndAppend(t *testing.T) {
	tt := newFixedTranscript()

	tt.Reset(`history of room "general" (2 messages)`, []Message{
		{ID: 1, Username: "alice", Text: "hello"},
		{ID: 2, Username: "bob", Text: "hi"},
	})
	tt.Append(Message{ID: 3, Username: "alice", Text: "what's up"})

	lines := tt.Lines()
	want := []string{
		`[12:00:00] history of room "general" (2 messages)`,
		"[12:00:00] alice: hello",
		"[12:00:00] bob: hi",
		"[12:00:00] alice: what's up",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestTextTranscriptPrependKeepsHeader(t *testing.T) {
	tt := newFixedTranscript()

	tt.Reset("title", []Message{
		{ID: 5, Username: "alice", Text: "five"},
		{ID: 6, Username: "bob", Text: "six"},
	})
	tt.Prepend([]Message{
		{ID: 3, Username: "carol", Text: "three"},
		{ID: 4, Username: "dave", Text: "four"},
	})

	lines := tt.Lines()
	if lines[0] != "[12:00:00] title" {
		t.Fatalf("header must stay on top, got %q", lines[0])
	}
	order := []string{"carol: three", "dave: four", "alice: five", "bob: six"}
	for i, suffix := range order {
		if got := lines[i+1]; got != "[12:00:00] "+suffix {
			t.Fatalf("line %d: expected suffix %q, got %q", i+1, suffix, got)
		}
	}
}

func TestTextTranscriptResetDiscardsPrevious(t *testing.T) {
	tt := newFixedTranscript()

	tt.Reset("old", []Message{{ID: 1, Username: "a", Text: "x"}})
	tt.Reset("new", nil)

	lines := tt.Lines()
	if len(lines) != 1 || lines[0] != "[12:00:00] new" {
		t.Fatalf("reset must discard previous content, got %v", lines)
	}
}
