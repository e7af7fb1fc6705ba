package roomchat

// ConnectionState represents the current state of the transport channel.
type ConnectionState int

const (
	// StateDisconnected means the client is not connected.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the client is establishing a connection.
	StateConnecting

	// StateConnected means the channel is open and ready.
	StateConnected

	// StateError means the channel failed and the session was reset.
	StateError

	// StateClosed means the client has been explicitly closed by the user.
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateChange describes a transport state transition.
type StateChange struct {
	Old   ConnectionState
	New   ConnectionState
	Error error // cause of the change, when one exists
}
