package roomchat

// Dispatcher routes server frames to their handlers. Every frame first
// drives the session transition, then fires the matching user callback;
// frames the session rejects as stale never reach a callback, so the
// room-matching rule lives in exactly one place.
type Dispatcher struct {
	session *Session
	logger  Logger

	onConnected   func(ConnectedPayload)
	onUsernameSet func(name string)
	onJoined      func(room string)
	onLeft        func(room string)
	onHistory     func(HistoryPayload)
	onMorePage    func(HistoryPayload)
	onMessage     func(Message)
	onError       func(error)
}

func (d *Dispatcher) SetOnConnected(fn func(ConnectedPayload)) { d.onConnected = fn }
func (d *Dispatcher) SetOnUsernameSet(fn func(string))         { d.onUsernameSet = fn }
func (d *Dispatcher) SetOnJoined(fn func(string))              { d.onJoined = fn }
func (d *Dispatcher) SetOnLeft(fn func(string))                { d.onLeft = fn }
func (d *Dispatcher) SetOnHistory(fn func(HistoryPayload))     { d.onHistory = fn }
func (d *Dispatcher) SetOnMorePage(fn func(HistoryPayload))    { d.onMorePage = fn }
func (d *Dispatcher) SetOnMessage(fn func(Message))            { d.onMessage = fn }
func (d *Dispatcher) SetOnError(fn func(error))                { d.onError = fn }

// Dispatch processes one server frame. The caller serializes invocations;
// handlers never run concurrently.
func (d *Dispatcher) Dispatch(fr ServerFrame) {
	switch fr.Event {
	case evConnected:
		var p ConnectedPayload
		if !d.decode(fr, &p) {
			return
		}
		d.session.HandleConnected(p)
		if d.onConnected != nil {
			d.onConnected(p)
		}
	case evUsernameSet:
		var p UsernamePayload
		if !d.decode(fr, &p) {
			return
		}
		d.session.HandleUsernameSet(p.Username)
		if d.onUsernameSet != nil {
			d.onUsernameSet(p.Username)
		}
	case evJoined:
		var p RoomPayload
		if !d.decode(fr, &p) {
			return
		}
		d.session.HandleJoined(p.Room)
		if d.onJoined != nil {
			d.onJoined(p.Room)
		}
	case evLeft:
		var p RoomPayload
		if !d.decode(fr, &p) {
			return
		}
		if d.session.HandleLeft(p.Room) && d.onLeft != nil {
			d.onLeft(p.Room)
		}
	case evHistory:
		var p HistoryPayload
		if !d.decode(fr, &p) {
			return
		}
		if d.session.HandleHistory(p) && d.onHistory != nil {
			d.onHistory(p)
		}
	case evMoreMessages:
		var p HistoryPayload
		if !d.decode(fr, &p) {
			return
		}
		if d.session.HandleMoreMessages(p) && d.onMorePage != nil {
			d.onMorePage(p)
		}
	case evMessage:
		var m Message
		if !d.decode(fr, &m) {
			return
		}
		if d.session.HandleMessage(m) && d.onMessage != nil {
			d.onMessage(m)
		}
	case evRoomsList, evRoomsUpdate:
		var p RoomsPayload
		if !d.decode(fr, &p) {
			return
		}
		d.session.HandleRooms(p.Rooms)
	case evError:
		var p ErrorPayload
		if !d.decode(fr, &p) {
			return
		}
		d.session.HandleServerError(p.Data)
		d.fireError(NewError(ErrorServer, p.Data))
	default:
		d.logger.Debug("unhandled event", map[string]any{"event": fr.Event})
	}
}

func (d *Dispatcher) decode(fr ServerFrame, v any) bool {
	if len(fr.Data) == 0 {
		return true
	}
	if err := UnmarshalData(fr.Data, v); err != nil {
		d.fireError(WrapError(ErrorSerialization, "failed to unmarshal "+fr.Event+" event", err))
		return false
	}
	return true
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
