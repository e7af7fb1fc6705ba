package roomchat

import "testing"

// sinkRecorder captures emitted commands for assertions.
type sinkRecorder struct {
	cmds []Command
	err  error // when set, Emit fails with it
}

func (r *sinkRecorder) Emit(cmd Command) error {
	if r.err != nil {
		return r.err
	}
	r.cmds = append(r.cmds, cmd)
	return nil
}

func (r *sinkRecorder) types() []string {
	out := make([]string, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = c.Type
	}
	return out
}

func (r *sinkRecorder) last(t *testing.T) Command {
	t.Helper()
	if len(r.cmds) == 0 {
		t.Fatalf("expected at least one emitted command")
	}
	return r.cmds[len(r.cmds)-1]
}

// transcriptRecorder records renderer calls in order.
type transcriptRecorder struct {
	calls    []string
	resets   [][]Message
	titles   []string
	prepends [][]Message
	appends  []Message
}

func (r *transcriptRecorder) Reset(title string, batch []Message) {
	r.calls = append(r.calls, "reset")
	r.titles = append(r.titles, title)
	r.resets = append(r.resets, batch)
}

func (r *transcriptRecorder) Prepend(batch []Message) {
	r.calls = append(r.calls, "prepend")
	r.prepends = append(r.prepends, batch)
}

func (r *transcriptRecorder) Append(m Message) {
	r.calls = append(r.calls, "append")
	r.appends = append(r.appends, m)
}

func newTestSession() (*Session, *sinkRecorder, *transcriptRecorder) {
	sink := &sinkRecorder{}
	tr := &transcriptRecorder{}
	return NewSession(sink, tr, DefaultPageSize, nil), sink, tr
}

// joinConfirmed drives the session into a confirmed membership with
// identity set, clearing the recorders afterwards.
func joinConfirmed(t *testing.T, s *Session, sink *sinkRecorder, tr *transcriptRecorder, room string) {
	t.Helper()
	s.HandleUsernameSet("alice")
	if err := s.Join(room); err != nil {
		t.Fatalf("join %q: %v", room, err)
	}
	s.HandleJoined(room)
	sink.cmds = nil
	tr.calls = nil
	tr.resets = nil
	tr.titles = nil
	tr.prepends = nil
	tr.appends = nil
}

func batch(ids ...int64) []Message {
	out := make([]Message, len(ids))
	for i, id := range ids {
		out[i] = Message{ID: id, Room: "general", Username: "bob", Text: "hi"}
	}
	return out
}

func wantCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if CodeOf(err) != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}
