package collab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dshills/coreview/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrSuperseded is returned by JoinRoom when LeaveRoom or another JoinRoom
// ran while it was dialing.
var ErrSuperseded = errors.New("join superseded")

const defaultWriteTimeout = 5 * time.Second

// Option configures a Channel.
type Option func(*Channel)

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option { return func(c *Channel) { c.dialer = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Channel) { c.logger = l } }

// WithWriteTimeout bounds every write, including the best-effort leave.
func WithWriteTimeout(d time.Duration) Option { return func(c *Channel) { c.writeTimeout = d } }

// Channel is one client's membership in a collaboration room.
type Channel struct {
	base         *url.URL
	dialer       *websocket.Dialer
	logger       *zap.Logger
	writeTimeout time.Duration

	mu           sync.Mutex
	cond         *sync.Cond
	conn         *websocket.Conn
	room         string
	state        State
	err          error
	participants int
	// gen identifies the current connection. Bumped on every join, leave
	// and loss so stale readers can tell they were replaced.
	gen    uint64
	queue  []Event
	closed bool

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a Channel that connects to rooms on serverURL (http, https,
// ws or wss).
func New(serverURL string, opts ...Option) (*Channel, error) {
	base, err := websocketBase(serverURL)
	if err != nil {
		return nil, err
	}
	c := &Channel{
		base:         base,
		dialer:       websocket.DefaultDialer,
		logger:       zap.NewNop(),
		writeTimeout: defaultWriteTimeout,
		events:       make(chan Event),
		done:         make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	c.wg.Add(1)
	go c.deliver()
	return c, nil
}

func websocketBase(serverURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported server url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url has no host: %s", serverURL)
	}
	return u, nil
}

func (c *Channel) roomURL(room string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + room
	return u.String()
}

// Events returns the ordered event stream. It is closed by Close.
func (c *Channel) Events() <-chan Event { return c.events }

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Room returns the current room ID, or "" when not in a room.
func (c *Channel) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Participants returns the number of remote peers announced in the room.
func (c *Channel) Participants() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participants
}

// Err returns the error that put the channel into the Error state.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CreateRoom generates a fresh room ID and joins it.
func (c *Channel) CreateRoom(ctx context.Context) (string, error) {
	id, err := protocol.NewRoomID()
	if err != nil {
		return "", fmt.Errorf("generating room id: %w", err)
	}
	if err := c.JoinRoom(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}

// JoinRoom connects to roomID, replacing any existing connection. The room
// is not checked for existence.
func (c *Channel) JoinRoom(ctx context.Context, roomID string) error {
	roomID = protocol.NormalizeRoomID(roomID)
	if !protocol.ValidRoomID(roomID) {
		return fmt.Errorf("%w: %q", protocol.ErrInvalidRoomID, roomID)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("channel closed")
	}
	c.teardownLocked()
	c.gen++
	gen := c.gen
	c.room = roomID
	c.setStateLocked(Connecting, nil)
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.roomURL(roomID), nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		if conn != nil {
			conn.Close()
		}
		return ErrSuperseded
	}
	if err != nil {
		c.setStateLocked(Error, err)
		return fmt.Errorf("connecting to room %s: %w", roomID, err)
	}

	c.conn = conn
	c.setStateLocked(Connected, nil)
	if err := c.writeLocked(protocol.Join()); err != nil {
		c.logger.Debug("sending join", zap.String("room", roomID), zap.Error(err))
	}
	c.logger.Info("joined room", zap.String("room", roomID))

	c.wg.Add(1)
	go c.readLoop(conn, gen)
	return nil
}

// LeaveRoom sends a best-effort leave and closes the connection. The
// channel ends up disconnected with no room whatever the send outcome.
func (c *Channel) LeaveRoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == "" && c.conn == nil && c.state == Disconnected {
		return
	}
	c.teardownLocked()
	c.gen++
	c.room = ""
	c.setStateLocked(Disconnected, nil)
}

// teardownLocked closes the current connection, if any, after trying to
// announce the departure.
func (c *Channel) teardownLocked() {
	if c.conn == nil {
		return
	}
	if err := c.writeLocked(protocol.Leave()); err != nil {
		c.logger.Debug("sending leave", zap.String("room", c.room), zap.Error(err))
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout))
	c.conn.Close()
	c.conn = nil
	c.logger.Info("left room", zap.String("room", c.room))
	c.setParticipantsLocked(0)
}

// SendUpdate broadcasts the full buffer state. It reports false, and sends
// nothing, unless the channel is connected.
func (c *Channel) SendUpdate(code, language string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Connected || c.conn == nil {
		return false
	}
	if err := c.writeLocked(protocol.CodeUpdate(code, language)); err != nil {
		c.logger.Debug("sending update", zap.String("room", c.room), zap.Error(err))
		return false
	}
	return true
}

func (c *Channel) writeLocked(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Channel) readLoop(conn *websocket.Conn, gen uint64) {
	defer c.wg.Done()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(gen, err)
			return
		}
		msg, err := protocol.Parse(data)
		if err != nil {
			c.logger.Debug("dropping malformed message", zap.Error(err))
			continue
		}

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		switch msg.Type {
		case protocol.TypeJoin:
			c.setParticipantsLocked(c.participants + 1)
		case protocol.TypeLeave:
			if c.participants > 0 {
				c.setParticipantsLocked(c.participants - 1)
			}
		case protocol.TypeCodeUpdate:
			ev := c.snapshotLocked(EventUpdate)
			ev.Code = msg.Code
			ev.Language = msg.Language
			c.enqueueLocked(ev)
		}
		c.mu.Unlock()
	}
}

func (c *Channel) connectionLost(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.gen++
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.logger.Warn("connection lost", zap.String("room", c.room), zap.Error(err))
	c.setParticipantsLocked(0)
	c.setStateLocked(Disconnected, nil)
}

func (c *Channel) setStateLocked(s State, err error) {
	if s == c.state && err == nil && c.err == nil {
		return
	}
	c.state = s
	c.err = err
	ev := c.snapshotLocked(EventState)
	ev.Err = err
	c.enqueueLocked(ev)
}

func (c *Channel) setParticipantsLocked(n int) {
	if n == c.participants {
		return
	}
	c.participants = n
	c.enqueueLocked(c.snapshotLocked(EventParticipants))
}

func (c *Channel) snapshotLocked(kind EventKind) Event {
	return Event{Kind: kind, State: c.state, Room: c.room, Participants: c.participants}
}

func (c *Channel) enqueueLocked(ev Event) {
	if c.closed {
		return
	}
	c.queue = append(c.queue, ev)
	c.cond.Signal()
}

// deliver moves queued events to the events channel so that producers
// never block on a slow consumer.
func (c *Channel) deliver() {
	defer c.wg.Done()
	defer close(c.events)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.cond.Wait()
		}
		if c.closed {
			c.mu.Unlock()
			return
		}
		ev := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

// Close leaves the current room, stops event delivery and closes the
// events channel.
func (c *Channel) Close() {
	c.LeaveRoom()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.queue = nil
	c.cond.Broadcast()
	close(c.done)
	c.mu.Unlock()
	c.wg.Wait()
}
