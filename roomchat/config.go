package roomchat

import "time"

// Config controls how the SDK connects.
type Config struct {
	URL      string // ws:// or wss:// endpoint
	Username string // requested right after connect when non-empty
	PageSize int    // history page size for join and load-more

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64 // max inbound frame size in bytes, 0 for the transport default
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:         DefaultPageSize,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      0, // the server owns idle detection
		WriteTimeout:     10 * time.Second,
	}
}
