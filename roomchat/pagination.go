package roomchat

import "fmt"

// Cursor tracks how far back the loaded history of the active room
// reaches. History pages arrive newest-first across deliveries but
// chronological within one batch, so the boundary is always the id of the
// first element of the most recently applied batch. Live messages are
// newer than anything paginated and never move the cursor.
type Cursor struct {
	OldestID  int64
	HasOldest bool
	HasMore   bool
}

// LoadMore requests the next older history page. It emits nothing unless
// a room is joined, a boundary id exists and the server signalled that
// older messages remain.
func (s *Session) LoadMore() error {
	if s.membership.Status != StatusJoined {
		return NewError(ErrorNotJoined, "join a room before loading history")
	}
	if !s.cursor.HasOldest || !s.cursor.HasMore {
		return NewError(ErrorNoMorePages, "no older messages to load")
	}
	return s.sink.Emit(Command{
		Type: cmdLoadMore,
		Data: LoadMorePayload{Room: s.membership.Room, BeforeID: s.cursor.OldestID, Limit: s.pageSize},
	})
}

// HandleHistory applies the initial history page for a room: the
// transcript is rebuilt from scratch and the cursor is seeded from the
// batch. A page for a superseded room is stale and reports false.
//
// The room is matched by name only: the server sends history before the
// joined confirmation, so membership may still be pending here.
func (s *Session) HandleHistory(p HistoryPayload) bool {
	if p.Room != s.membership.Room {
		s.logger.Debug("stale history dropped", map[string]any{"room": p.Room, "current": s.membership.Room})
		return false
	}

	s.cursor = Cursor{HasMore: p.HasMore}
	if len(p.Messages) > 0 {
		s.cursor.OldestID = p.Messages[0].ID
		s.cursor.HasOldest = true
	}

	title := fmt.Sprintf("history of room %q (%d messages)", p.Room, len(p.Messages))
	s.transcript.Reset(title, p.Messages)
	s.fireControls()
	return true
}

// HandleMoreMessages applies an older history page above the current
// transcript. An empty batch is the server's exhaustion signal: the
// cursor closes and the renderer is not touched. Stale pages report false.
func (s *Session) HandleMoreMessages(p HistoryPayload) bool {
	if p.Room != s.membership.Room {
		s.logger.Debug("stale page dropped", map[string]any{"room": p.Room, "current": s.membership.Room})
		return false
	}

	if len(p.Messages) == 0 {
		s.cursor.HasMore = false
		s.fireControls()
		return true
	}

	s.transcript.Prepend(p.Messages)
	s.cursor.OldestID = p.Messages[0].ID
	s.cursor.HasOldest = true
	s.cursor.HasMore = p.HasMore
	s.fireControls()
	return true
}
