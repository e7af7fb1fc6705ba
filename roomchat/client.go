package roomchat

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"

	"github.com/vovakirdan/roomchat-sdk-go/roomchat/internal"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Client maintains the single live connection to the chat server and owns
// the session state machine behind it. All state transitions run one at a
// time: inbound frames are dispatched from a single read loop and public
// operations take the same lock, so handlers never interleave. User
// callbacks are invoked after the transition completes and the lock is
// released, so a callback may safely call back into the client.
type Client struct {
	cfg        Config
	logger     Logger
	conn       *internal.Conn
	writeCh    chan Command
	dispatcher Dispatcher
	session    *Session

	// smu serializes session transitions (user operations and dispatch).
	// post collects callbacks queued during a transition; it is drained
	// once smu is released.
	smu  sync.Mutex
	post []func()

	mu      sync.Mutex
	state   ConnectionState
	connID  string
	cancel  context.CancelFunc
	onState func(StateChange)
}

// NewClient constructs a client with provided config.
// Use DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:     cfg,
		logger:  noopLogger{},
		writeCh: make(chan Command, 16),
	}
	c.session = NewSession(c, nil, cfg.PageSize, c.logger)
	c.dispatcher = Dispatcher{session: c.session, logger: c.logger}
	return c
}

// SetLogger overrides logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
	c.session.logger = l
	c.dispatcher.logger = l
}

// SetTranscript installs the renderer the session writes to. Call before
// Connect; the default discards everything.
func (c *Client) SetTranscript(tr Transcript) {
	if tr == nil {
		return
	}
	c.session.transcript = tr
}

// queue defers fn until the current transition releases the session lock.
// Must be called with smu held.
func (c *Client) queue(fn func()) {
	c.post = append(c.post, fn)
}

// withSession runs fn under the session lock, then fires the callbacks the
// transition queued.
func (c *Client) withSession(fn func() error) error {
	c.smu.Lock()
	err := fn()
	post := c.post
	c.post = nil
	c.smu.Unlock()
	for _, f := range post {
		f()
	}
	return err
}

// OnConnected registers callback for the server's channel-open notice.
func (c *Client) OnConnected(fn func(ConnectedPayload)) {
	c.dispatcher.SetOnConnected(func(p ConnectedPayload) { c.queue(func() { fn(p) }) })
}

// OnUsernameSet registers callback for identity confirmations.
func (c *Client) OnUsernameSet(fn func(name string)) {
	c.dispatcher.SetOnUsernameSet(func(name string) { c.queue(func() { fn(name) }) })
}

// OnJoined registers callback for join confirmations.
func (c *Client) OnJoined(fn func(room string)) {
	c.dispatcher.SetOnJoined(func(room string) { c.queue(func() { fn(room) }) })
}

// OnLeft registers callback for leave confirmations of the current room.
func (c *Client) OnLeft(fn func(room string)) {
	c.dispatcher.SetOnLeft(func(room string) { c.queue(func() { fn(room) }) })
}

// OnHistory registers callback for initial history pages.
func (c *Client) OnHistory(fn func(HistoryPayload)) {
	c.dispatcher.SetOnHistory(func(p HistoryPayload) { c.queue(func() { fn(p) }) })
}

// OnMorePage registers callback for older history pages.
func (c *Client) OnMorePage(fn func(HistoryPayload)) {
	c.dispatcher.SetOnMorePage(func(p HistoryPayload) { c.queue(func() { fn(p) }) })
}

// OnMessage registers callback for live messages in the active room.
func (c *Client) OnMessage(fn func(Message)) {
	c.dispatcher.SetOnMessage(func(m Message) { c.queue(func() { fn(m) }) })
}

// OnError registers callback for server and transport errors.
func (c *Client) OnError(fn func(error)) {
	c.dispatcher.SetOnError(func(err error) { c.queue(func() { fn(err) }) })
}

// OnControls registers callback for permitted-action changes.
func (c *Client) OnControls(fn func(Controls)) {
	c.session.OnControls(func(ctl Controls) { c.queue(func() { fn(ctl) }) })
}

// OnRooms registers callback for room directory renders.
func (c *Client) OnRooms(fn func(entries []RoomStat, active string)) {
	c.session.OnRooms(func(entries []RoomStat, active string) {
		c.queue(func() { fn(entries, active) })
	})
}

// OnIdentityRequired registers callback fired when a username must be
// established before chatting.
func (c *Client) OnIdentityRequired(fn func(hint string)) {
	c.session.OnIdentityRequired(func(hint string) { c.queue(func() { fn(hint) }) })
}

// OnStateChange registers callback for transport state transitions.
func (c *Client) OnStateChange(fn func(StateChange)) { c.onState = fn }

// Connect dials the server and starts internal loops. When the config
// carries a username it is requested right away; a directory snapshot is
// always asked for.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return NewError(ErrorConnection, "already connected")
	}
	c.state = StateConnecting
	c.mu.Unlock()

	if c.cfg.URL == "" {
		c.setState(StateDisconnected, nil)
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		c.setState(StateDisconnected, err)
		return WrapError(ErrorInvalidConfig, "invalid URL", err)
	}

	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		c.setState(StateDisconnected, err)
		return WrapError(ErrorConnection, "dial failed", err)
	}

	c.conn = internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout, c.cfg.ReadLimit)
	c.connID = uuid.NewString()

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	c.setState(StateConnected, nil)
	c.logger.Info("connected", map[string]any{"conn_id": c.connID, "url": c.cfg.URL})

	go c.readLoop(runCtx)
	go c.writeLoop(runCtx)

	if c.cfg.Username != "" {
		if err := c.SetUsername(c.cfg.Username); err != nil {
			c.logger.Warn("initial username request failed", map[string]any{"error": err.Error()})
		}
	}
	if err := c.RefreshRooms(); err != nil {
		c.logger.Warn("initial rooms refresh failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// Close shuts down the client and closes the channel.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	old := c.state
	c.state = StateClosed
	c.mu.Unlock()
	if old != StateClosed {
		c.fireState(old, StateClosed, nil)
		c.resetSession("client close")
	}
	if c.conn != nil {
		return c.conn.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

// State returns the current transport state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetUsername requests the session identity.
func (c *Client) SetUsername(name string) error {
	return c.withSession(func() error { return c.session.SetUsername(name) })
}

// Join requests membership in room, leaving the current one first when
// needed.
func (c *Client) Join(room string) error {
	return c.withSession(func() error { return c.session.Join(room) })
}

// Leave requests departure from the joined room.
func (c *Client) Leave() error {
	return c.withSession(func() error { return c.session.Leave() })
}

// Send publishes text to the joined room.
func (c *Client) Send(text string) error {
	return c.withSession(func() error { return c.session.Send(text) })
}

// LoadMore requests the next older history page.
func (c *Client) LoadMore() error {
	return c.withSession(func() error { return c.session.LoadMore() })
}

// RefreshRooms requests a fresh directory snapshot.
func (c *Client) RefreshRooms() error {
	return c.withSession(func() error { return c.session.RefreshRooms() })
}

// Username returns the confirmed identity, or "".
func (c *Client) Username() string {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.session.Username()
}

// Membership returns the current room membership.
func (c *Client) Membership() Membership {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.session.Membership()
}

// Cursor returns the pagination cursor for the active room.
func (c *Client) Cursor() Cursor {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.session.Cursor()
}

// Controls returns the currently permitted actions.
func (c *Client) Controls() Controls {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.session.Controls()
}

// Rooms returns the cached room directory snapshot.
func (c *Client) Rooms() []RoomStat {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.session.Rooms()
}

// Emit implements CommandSink: commands are queued for the write loop and
// never wait for the network.
func (c *Client) Emit(cmd Command) error {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	if st != StateConnected {
		return NewError(ErrorNotConnected, "client is not connected")
	}
	select {
	case c.writeCh <- cmd:
		return nil
	default:
		return NewError(ErrorConnection, "outbound queue full")
	}
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		var fr ServerFrame
		if err := c.conn.ReadFrame(ctx, &fr); err != nil {
			if isExpectedDisconnect(ctx, err) {
				c.transportLost(StateDisconnected, err)
				return
			}
			c.fireTransportError(WrapError(ErrorConnection, "read failed", err))
			c.logger.Warn("read loop exit", map[string]any{"conn_id": c.connID, "error": err.Error()})
			c.transportLost(StateError, err)
			return
		}
		_ = c.withSession(func() error {
			c.dispatcher.Dispatch(fr)
			return nil
		})
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case cmd := <-c.writeCh:
			if err := c.conn.WriteFrame(ctx, cmd); err != nil {
				c.fireTransportError(WrapError(ErrorConnection, "write failed", err))
				c.logger.Warn("write loop exit", map[string]any{"conn_id": c.connID, "error": err.Error()})
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) fireTransportError(err error) {
	_ = c.withSession(func() error {
		c.dispatcher.fireError(err)
		return nil
	})
}

// transportLost records the lost channel and performs the full session
// reset: identity, membership and cursor all return to empty and pending
// commands become moot.
func (c *Client) transportLost(to ConnectionState, cause error) {
	c.mu.Lock()
	old := c.state
	if old == StateClosed {
		// Close already reset the session.
		c.mu.Unlock()
		return
	}
	c.state = to
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.fireState(old, to, cause)
	reason := "connection closed"
	if cause != nil {
		reason = cause.Error()
	}
	c.resetSession(reason)
}

func (c *Client) resetSession(reason string) {
	_ = c.withSession(func() error {
		c.session.HandleDisconnected(reason)
		return nil
	})
}

func (c *Client) setState(to ConnectionState, cause error) {
	c.mu.Lock()
	old := c.state
	c.state = to
	c.mu.Unlock()
	c.fireState(old, to, cause)
}

func (c *Client) fireState(old, cur ConnectionState, cause error) {
	if c.onState != nil && old != cur {
		c.onState(StateChange{Old: old, New: cur, Error: cause})
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
