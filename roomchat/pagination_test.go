package roomchat

import "testing"

func TestHistorySeedsCursor(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "general")

	if !s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(5, 6, 7), HasMore: true}) {
		t.Fatalf("history for the active room must apply")
	}

	if got := s.Cursor(); got.OldestID != 5 || !got.HasOldest || !got.HasMore {
		t.Fatalf("expected cursor {5,true,true}, got %+v", got)
	}
	if len(tr.calls) != 1 || tr.calls[0] != "reset" {
		t.Fatalf("history must rebuild the transcript, got %v", tr.calls)
	}
	if got := tr.resets[0]; len(got) != 3 || got[0].ID != 5 || got[2].ID != 7 {
		t.Fatalf("unexpected reset batch: %+v", got)
	}
}

func TestHistoryWithEmptyBatch(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "general")

	s.HandleHistory(HistoryPayload{Room: "general", Messages: nil, HasMore: false})

	if got := s.Cursor(); got.HasOldest || got.HasMore {
		t.Fatalf("empty history leaves no boundary, got %+v", got)
	}
	if len(tr.calls) != 1 || tr.calls[0] != "reset" {
		t.Fatalf("even an empty history replaces the transcript, got %v", tr.calls)
	}
}

func TestHistoryAcceptedWhilePending(t *testing.T) {
	s, sink, _ := newTestSession()
	s.HandleUsernameSet("alice")
	if err := s.Join("general"); err != nil {
		t.Fatalf("join: %v", err)
	}
	sink.cmds = nil

	// The server sends history before the joined confirmation.
	if !s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(5), HasMore: false}) {
		t.Fatalf("history for the pending room must apply")
	}
	if got := s.Cursor(); got.OldestID != 5 || !got.HasOldest {
		t.Fatalf("expected seeded cursor, got %+v", got)
	}
}

func TestStaleHistoryDropped(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "random")

	if s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(5, 6), HasMore: true}) {
		t.Fatalf("history for a superseded room must be dropped")
	}
	if len(tr.calls) != 0 {
		t.Fatalf("renderer must not be called for stale history, got %v", tr.calls)
	}
	if got := s.Cursor(); got != (Cursor{}) {
		t.Fatalf("cursor must be untouched, got %+v", got)
	}
}

func TestMorePagePrependsAndMovesCursor(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "general")
	s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(5, 6, 7), HasMore: true})

	if !s.HandleMoreMessages(HistoryPayload{Room: "general", Messages: batch(3, 4), HasMore: false}) {
		t.Fatalf("page for the active room must apply")
	}

	if got := s.Cursor(); got.OldestID != 3 || !got.HasOldest || got.HasMore {
		t.Fatalf("expected cursor {3,true,false}, got %+v", got)
	}
	if len(tr.prepends) != 1 {
		t.Fatalf("expected exactly one prepend, got %v", tr.calls)
	}
	if got := tr.prepends[0]; len(got) != 2 || got[0].ID != 3 || got[1].ID != 4 {
		t.Fatalf("prepend must keep chronological order, got %+v", got)
	}
}

func TestEmptyMorePageClosesCursor(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "general")
	s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(5, 6), HasMore: true})
	tr.calls = nil

	s.HandleMoreMessages(HistoryPayload{Room: "general", Messages: nil, HasMore: true})

	if got := s.Cursor(); got.HasMore {
		t.Fatalf("empty page signals exhaustion, got %+v", got)
	}
	if got := s.Cursor(); got.OldestID != 5 {
		t.Fatalf("boundary must stay where it was, got %+v", got)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("an empty page must not touch the renderer, got %v", tr.calls)
	}
}

func TestStaleMorePageDropped(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "random")

	if s.HandleMoreMessages(HistoryPayload{Room: "general", Messages: batch(1, 2), HasMore: true}) {
		t.Fatalf("page for a superseded room must be dropped")
	}
	if len(tr.calls) != 0 {
		t.Fatalf("renderer must not be called, got %v", tr.calls)
	}
}

func TestLoadMoreEmitsOnlyWhenPermitted(t *testing.T) {
	s, sink, tr := newTestSession()

	wantCode(t, s.LoadMore(), ErrorNotJoined)

	joinConfirmed(t, s, sink, tr, "general")
	wantCode(t, s.LoadMore(), ErrorNoMorePages) // no cursor yet

	s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(5, 6, 7), HasMore: true})
	if err := s.LoadMore(); err != nil {
		t.Fatalf("load more: %v", err)
	}
	cmd := sink.last(t)
	if cmd.Type != cmdLoadMore {
		t.Fatalf("expected %s, got %s", cmdLoadMore, cmd.Type)
	}
	p := cmd.Data.(LoadMorePayload)
	if p.Room != "general" || p.BeforeID != 5 || p.Limit != DefaultPageSize {
		t.Fatalf("unexpected load_more payload: %+v", p)
	}

	sink.cmds = nil
	s.HandleMoreMessages(HistoryPayload{Room: "general", Messages: nil, HasMore: false})
	wantCode(t, s.LoadMore(), ErrorNoMorePages)
	if len(sink.cmds) != 0 {
		t.Fatalf("exhausted cursor must emit nothing, got %v", sink.types())
	}
}

func TestBackwardPaginationWalk(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "general")

	s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(7, 8, 9), HasMore: true})
	if err := s.LoadMore(); err != nil {
		t.Fatalf("load more: %v", err)
	}
	s.HandleMoreMessages(HistoryPayload{Room: "general", Messages: batch(4, 5, 6), HasMore: true})
	if err := s.LoadMore(); err != nil {
		t.Fatalf("load more: %v", err)
	}
	s.HandleMoreMessages(HistoryPayload{Room: "general", Messages: batch(1, 2, 3), HasMore: false})

	if got := s.Cursor(); got.OldestID != 1 || got.HasMore {
		t.Fatalf("expected cursor at 1 and exhausted, got %+v", got)
	}

	// Each load_more carried the boundary of the page before it.
	var befores []int64
	for _, cmd := range sink.cmds {
		if cmd.Type == cmdLoadMore {
			befores = append(befores, cmd.Data.(LoadMorePayload).BeforeID)
		}
	}
	if len(befores) != 2 || befores[0] != 7 || befores[1] != 4 {
		t.Fatalf("unexpected before_id sequence: %v", befores)
	}
}

func TestLiveMessagesDoNotMoveCursor(t *testing.T) {
	s, sink, tr := newTestSession()
	joinConfirmed(t, s, sink, tr, "general")
	s.HandleHistory(HistoryPayload{Room: "general", Messages: batch(5, 6), HasMore: true})

	s.HandleMessage(Message{ID: 99, Room: "general", Username: "bob", Text: "fresh"})

	if got := s.Cursor(); got.OldestID != 5 {
		t.Fatalf("live messages are newer than anything paginated, got %+v", got)
	}
}
