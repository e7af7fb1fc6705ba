package roomchat

import (
	"strings"
	"sync"
	"time"
)

// Transcript renders the message log of the active room. Reset and
// Prepend are the only operations that restructure existing content, so
// the displayed transcript is always derivable from the sequence of these
// calls; Append adds a single live message below everything shown.
type Transcript interface {
	// Reset discards the current content and rebuilds it from a title
	// line followed by batch in chronological order.
	Reset(title string, batch []Message)
	// Prepend inserts batch (chronological order) above the existing
	// lines, keeping the original title line on top.
	Prepend(batch []Message)
	// Append adds one live message at the bottom.
	Append(m Message)
}

type nopTranscript struct{}

func (nopTranscript) Reset(string, []Message) {}
func (nopTranscript) Prepend([]Message)       {}
func (nopTranscript) Append(Message)          {}

// TextTranscript is a plain-text Transcript: a header line plus one
// timestamped line per message.
type TextTranscript struct {
	mu     sync.Mutex
	now    func() time.Time
	header string
	lines  []string
}

// NewTextTranscript returns an empty text transcript.
func NewTextTranscript() *TextTranscript {
	return &TextTranscript{now: time.Now}
}

// Reset implements Transcript.
func (t *TextTranscript) Reset(title string, batch []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.header = t.stamp(title)
	t.lines = t.lines[:0]
	for _, m := range batch {
		t.lines = append(t.lines, t.format(m))
	}
}

// Prepend implements Transcript.
func (t *TextTranscript) Prepend(batch []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	older := make([]string, 0, len(batch)+len(t.lines))
	for _, m := range batch {
		older = append(older, t.format(m))
	}
	t.lines = append(older, t.lines...)
}

// Append implements Transcript.
func (t *TextTranscript) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, t.format(m))
}

// Lines returns the rendered transcript: header first, then messages.
func (t *TextTranscript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.lines)+1)
	if t.header != "" {
		out = append(out, t.header)
	}
	return append(out, t.lines...)
}

// String returns the transcript as one newline-joined block.
func (t *TextTranscript) String() string {
	return strings.Join(t.Lines(), "\n")
}

func (t *TextTranscript) format(m Message) string {
	return t.stamp(m.Username + ": " + m.Text)
}

func (t *TextTranscript) stamp(line string) string {
	return "[" + t.now().Format("15:04:05") + "] " + line
}
