package roomchat

import "encoding/json"

const (
	// DefaultRoom is joined when the caller does not name one.
	DefaultRoom = "geral"

	// DefaultPageSize is the history page size requested on join and load-more.
	DefaultPageSize = 50

	// MaxUsernameLen mirrors the server-side limit.
	MaxUsernameLen = 24

	// MaxMessageLen mirrors the server-side limit.
	MaxMessageLen = 1000
)

const (
	cmdSetUsername = "set_username"
	cmdJoin        = "join"
	cmdLeave       = "leave"
	cmdLoadMore    = "load_more"
	cmdMessage     = "message"
	cmdListRooms   = "list_rooms"

	evConnected    = "connected"
	evUsernameSet  = "username_set"
	evJoined       = "joined"
	evLeft         = "left"
	evHistory      = "history"
	evMoreMessages = "more_messages"
	evMessage      = "message"
	evRoomsList    = "rooms_list"
	evRoomsUpdate  = "rooms_update"
	evError        = "error"
)

// Command is the envelope client -> server.
type Command struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ServerFrame is the envelope server -> client.
type ServerFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// UsernamePayload requests or confirms a session username.
type UsernamePayload struct {
	Username string `json:"username"`
}

// JoinPayload subscribes to a room and asks for the first history page.
type JoinPayload struct {
	Room  string `json:"room"`
	Limit int    `json:"limit"`
}

// LeavePayload unsubscribes from a room.
type LeavePayload struct {
	Room string `json:"room"`
}

// LoadMorePayload requests messages older than BeforeID.
type LoadMorePayload struct {
	Room     string `json:"room"`
	BeforeID int64  `json:"before_id"`
	Limit    int    `json:"limit"`
}

// MessagePayload publishes a message to a room.
type MessagePayload struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// Message is a single chat message as stored by the server.
type Message struct {
	ID        int64  `json:"id"`
	Room      string `json:"room"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ConnectedPayload is sent by the server right after the channel opens.
// Username is present when the server-side session already knows the user.
type ConnectedPayload struct {
	Username string `json:"username,omitempty"`
}

// RoomPayload confirms a join or leave.
type RoomPayload struct {
	Room string `json:"room"`
}

// HistoryPayload carries one chronological page of messages. It is used by
// both the initial history event and the load-more reply.
type HistoryPayload struct {
	Room     string    `json:"room"`
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// RoomStat is one entry of the room directory snapshot.
type RoomStat struct {
	Room      string `json:"room"`
	TotalMsgs int64  `json:"total_msgs"`
	LastID    int64  `json:"last_id,omitempty"`
	LastAt    string `json:"last_at,omitempty"`
}

// RoomsPayload is the full-replacement room directory snapshot.
type RoomsPayload struct {
	Rooms []RoomStat `json:"rooms"`
}

// ErrorPayload carries a human-readable server error.
type ErrorPayload struct {
	Data string `json:"data"`
}

// UnmarshalData decodes RawMessage into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
