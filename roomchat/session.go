package roomchat

import (
	"fmt"
	"strings"
)

// CommandSink receives outbound commands produced by session transitions.
// Emit must not block on the network; the session never waits for a
// confirmation, it only reacts to later inbound events.
type CommandSink interface {
	Emit(cmd Command) error
}

// MembershipStatus describes the client's relation to its active room.
type MembershipStatus int

const (
	// StatusNone means no room is selected.
	StatusNone MembershipStatus = iota
	// StatusPending means a join was requested but not yet confirmed.
	StatusPending
	// StatusJoined means the server confirmed the join.
	StatusJoined
)

// String returns the string representation of a MembershipStatus.
func (s MembershipStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusPending:
		return "pending"
	case StatusJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// Membership tracks the single active room. Only one room may be joined
// at a time; a new join supersedes the previous room.
type Membership struct {
	Room   string
	Status MembershipStatus
}

// Controls mirrors which user actions are currently permitted. It is
// recomputed after every transition so UI layers never decide on their own.
type Controls struct {
	CanSend     bool
	CanLeave    bool
	CanLoadMore bool
}

// Session reconciles asynchronous server events into one consistent view:
// which room the client is in, what part of its history is loaded, and
// what the room directory looks like. Commands go out through a
// CommandSink; ordered message batches go to a Transcript.
//
// Session is not safe for concurrent use. Client serializes all access;
// in tests it is driven directly from a single goroutine.
type Session struct {
	sink       CommandSink
	transcript Transcript
	logger     Logger
	pageSize   int

	username   string
	membership Membership
	cursor     Cursor
	directory  Directory

	onControls         func(Controls)
	onRooms            func(entries []RoomStat, active string)
	onIdentityRequired func(hint string)
}

// NewSession builds a session emitting into sink and rendering into tr.
// pageSize <= 0 falls back to DefaultPageSize; a nil transcript or logger
// is replaced with a no-op.
func NewSession(sink CommandSink, tr Transcript, pageSize int, logger Logger) *Session {
	if tr == nil {
		tr = nopTranscript{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{
		sink:       sink,
		transcript: tr,
		logger:     logger,
		pageSize:   pageSize,
	}
}

// OnControls registers the callback fired after every transition with the
// recomputed control state.
func (s *Session) OnControls(fn func(Controls)) { s.onControls = fn }

// OnRooms registers the directory render callback. It receives the cached
// snapshot and the name of the active room ("" when none is joined).
func (s *Session) OnRooms(fn func(entries []RoomStat, active string)) { s.onRooms = fn }

// OnIdentityRequired registers the callback fired when the server expects
// a username to be established before proceeding.
func (s *Session) OnIdentityRequired(fn func(hint string)) { s.onIdentityRequired = fn }

// Username returns the confirmed identity, or "" when unauthenticated.
func (s *Session) Username() string { return s.username }

// Membership returns the current room membership.
func (s *Session) Membership() Membership { return s.membership }

// Cursor returns the pagination cursor for the active room.
func (s *Session) Cursor() Cursor { return s.cursor }

// Controls returns the currently permitted actions.
func (s *Session) Controls() Controls {
	return Controls{
		CanSend:     s.membership.Status == StatusJoined && s.username != "",
		CanLeave:    s.membership.Status == StatusJoined,
		CanLoadMore: s.membership.Status == StatusJoined && s.cursor.HasOldest && s.cursor.HasMore,
	}
}

// Rooms returns a copy of the cached room directory snapshot.
func (s *Session) Rooms() []RoomStat { return s.directory.Snapshot() }

// SetUsername asks the server to establish the session identity. The
// identity only becomes confirmed when username_set (or connected) carries
// it back.
func (s *Session) SetUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewError(ErrorValidation, "username must not be empty")
	}
	if len(name) > MaxUsernameLen {
		return NewError(ErrorValidation, fmt.Sprintf("username too long (max %d)", MaxUsernameLen))
	}
	return s.sink.Emit(Command{Type: cmdSetUsername, Data: UsernamePayload{Username: name}})
}

// Join requests membership in room. When already joined elsewhere the old
// room gets a fire-and-forget leave first; its eventual confirmation is
// dropped by the stale-room rule. Membership turns pending immediately and
// the pagination cursor resets before the join is even acknowledged.
func (s *Session) Join(room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return NewError(ErrorValidation, "room name must not be empty")
	}
	if s.username == "" {
		return NewError(ErrorNotAuthenticated, "set a username before joining a room")
	}

	if s.membership.Status == StatusJoined && s.membership.Room != room {
		if err := s.sink.Emit(Command{Type: cmdLeave, Data: LeavePayload{Room: s.membership.Room}}); err != nil {
			return err
		}
	}

	s.cursor = Cursor{}
	s.membership = Membership{Room: room, Status: StatusPending}
	s.transcript.Reset(fmt.Sprintf("loading room %q...", room), nil)

	if err := s.sink.Emit(Command{Type: cmdJoin, Data: JoinPayload{Room: room, Limit: s.pageSize}}); err != nil {
		return err
	}
	s.fireControls()
	return nil
}

// Leave requests departure from the joined room. Membership is not cleared
// locally; that happens when the matching left confirmation arrives.
func (s *Session) Leave() error {
	if s.membership.Status != StatusJoined {
		return NewError(ErrorNotJoined, "no room joined")
	}
	return s.sink.Emit(Command{Type: cmdLeave, Data: LeavePayload{Room: s.membership.Room}})
}

// Send publishes text to the joined room. There is no local echo: the
// message comes back as a live event, keeping one source of ordering.
func (s *Session) Send(text string) error {
	text = strings.TrimSpace(text)
	if s.membership.Status != StatusJoined {
		return NewError(ErrorNotJoined, "join a room before sending")
	}
	if text == "" {
		return NewError(ErrorValidation, "message must not be empty")
	}
	if len(text) > MaxMessageLen {
		return NewError(ErrorValidation, fmt.Sprintf("message too long (max %d)", MaxMessageLen))
	}
	return s.sink.Emit(Command{Type: cmdMessage, Data: MessagePayload{Room: s.membership.Room, Text: text}})
}

// RefreshRooms asks for a fresh directory snapshot. Allowed in any state.
func (s *Session) RefreshRooms() error {
	return s.sink.Emit(Command{Type: cmdListRooms})
}

// HandleConnected processes the server's channel-open notice. A username
// carried in the payload is a confirmed identity (the server-side session
// survived); otherwise identity setup is required.
func (s *Session) HandleConnected(p ConnectedPayload) {
	if p.Username != "" {
		s.username = p.Username
		s.fireControls()
		return
	}
	s.fireIdentityRequired("set a username to start chatting")
}

// HandleUsernameSet confirms the identity. A later confirmation overwrites
// an earlier one.
func (s *Session) HandleUsernameSet(name string) {
	s.username = name
	s.fireControls()
}

// HandleJoined confirms room membership. Under rapid room switching the
// last-arriving confirmation wins unconditionally.
func (s *Session) HandleJoined(room string) {
	s.membership = Membership{Room: room, Status: StatusJoined}
	s.fireControls()
	s.fireRooms()
}

// HandleLeft clears membership and cursor when the confirmation matches
// the tracked room. A confirmation for a superseded room is stale and
// reports false.
func (s *Session) HandleLeft(room string) bool {
	if room != s.membership.Room {
		s.logger.Debug("stale left confirmation dropped", map[string]any{"room": room, "current": s.membership.Room})
		return false
	}
	s.membership = Membership{}
	s.cursor = Cursor{}
	s.fireControls()
	s.fireRooms()
	return true
}

// HandleMessage forwards a live message to the transcript when it belongs
// to the tracked room; anything else is dropped. Reports delivery.
func (s *Session) HandleMessage(m Message) bool {
	if s.membership.Status == StatusNone || m.Room != s.membership.Room {
		s.logger.Debug("live message for inactive room dropped", map[string]any{"room": m.Room})
		return false
	}
	s.transcript.Append(m)
	return true
}

// HandleRooms replaces the directory snapshot wholesale and re-renders.
func (s *Session) HandleRooms(entries []RoomStat) {
	s.directory.Replace(entries)
	s.fireRooms()
}

// HandleServerError surfaces an inbound error event. When identity is not
// yet established it doubles as a prompt to set one.
func (s *Session) HandleServerError(detail string) {
	s.logger.Warn("server error", map[string]any{"detail": detail})
	if s.username == "" {
		s.fireIdentityRequired(detail)
	}
}

// HandleDisconnected performs the full reset: identity, membership and
// cursor return to empty. The directory snapshot is only a display cache
// and is kept for the next render.
func (s *Session) HandleDisconnected(reason string) {
	s.logger.Info("disconnected", map[string]any{"reason": reason})
	s.username = ""
	s.membership = Membership{}
	s.cursor = Cursor{}
	s.fireControls()
	s.fireRooms()
}

func (s *Session) fireControls() {
	if s.onControls != nil {
		s.onControls(s.Controls())
	}
}

func (s *Session) fireRooms() {
	if s.onRooms == nil {
		return
	}
	active := ""
	if s.membership.Status == StatusJoined {
		active = s.membership.Room
	}
	s.onRooms(s.directory.Snapshot(), active)
}

func (s *Session) fireIdentityRequired(hint string) {
	if s.onIdentityRequired != nil {
		s.onIdentityRequired(hint)
	}
}
