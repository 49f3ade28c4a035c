package hub

import (
	"errors"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/coreview/internal/metrics"
	"github.com/dshills/coreview/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait         = 10 * time.Second
	defaultSendBuffer = 64
)

// ErrClosed is returned by ServeWS after Close.
var ErrClosed = errors.New("hub closed")

// Options configures a Hub. Zero values select defaults.
type Options struct {
	MaxMessageBytes int64
	PingInterval    time.Duration
	SendBuffer      int
	// CheckOrigin is passed to the websocket upgrader. Nil accepts any origin.
	CheckOrigin func(r *http.Request) bool
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// RoomInfo is a point-in-time view of one room.
type RoomInfo struct {
	ID      string `json:"roomId"`
	Clients int    `json:"clients"`
}

type room struct {
	id      string
	clients map[*client]struct{}
}

// Hub relays messages between the clients of each room.
type Hub struct {
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu     sync.Mutex
	rooms  map[string]*room
	closed bool
	wg     sync.WaitGroup
}

// New creates a Hub.
func New(opts Options) *Hub {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 1 << 20
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		rooms: make(map[string]*room),
	}
}

// ServeWS upgrades the request and serves the client until it disconnects.
// The room ID is normalized; an invalid ID is rejected before the upgrade.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, roomID string) error {
	roomID = protocol.NormalizeRoomID(roomID)
	if !protocol.ValidRoomID(roomID) {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return protocol.ErrInvalidRoomID
	}

	h.mu.Lock()
	closed := h.closed
	if !closed {
		h.wg.Add(1)
	}
	h.mu.Unlock()
	if closed {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return ErrClosed
	}
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return err
	}

	c := &client{
		id:   uuid.NewString(),
		room: roomID,
		conn: conn,
		send: make(chan []byte, h.opts.SendBuffer),
		hub:  h,
	}
	if !h.register(c) {
		conn.Close()
		return ErrClosed
	}
	h.logger.Debug("client connected", zap.String("room", roomID), zap.String("client", c.id))

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	c.readPump()
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	rm, ok := h.rooms[c.room]
	if !ok {
		rm = &room{id: c.room, clients: make(map[*client]struct{})}
		h.rooms[c.room] = rm
		h.metrics.RoomOpened()
		h.logger.Info("room opened", zap.String("room", c.room))
	}
	rm.clients[c] = struct{}{}
	h.metrics.ClientConnected()
	return true
}

// detachLocked removes c from its room and stops its writer. Safe to call
// more than once.
func (h *Hub) detachLocked(c *client) {
	rm, ok := h.rooms[c.room]
	if ok {
		if _, member := rm.clients[c]; member {
			delete(rm.clients, c)
			h.metrics.ClientDisconnected()
		}
		if len(rm.clients) == 0 {
			delete(h.rooms, c.room)
			h.metrics.RoomClosed()
			h.logger.Info("room closed", zap.String("room", c.room))
		}
	}
	c.closeSend()
}

// relay queues data for every client in from's room except from. A client
// whose queue is full is disconnected.
func (h *Hub) relay(from *client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[from.room]
	if !ok {
		return
	}
	for peer := range rm.clients {
		if peer == from {
			continue
		}
		select {
		case peer.send <- data:
		default:
			h.logger.Warn("dropping slow client", zap.String("room", peer.room), zap.String("client", peer.id))
			h.metrics.Dropped("slow_client")
			h.detachLocked(peer)
		}
	}
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	h.detachLocked(c)
	h.mu.Unlock()

	// Peers counted this client when it joined; tell them it is gone.
	if c.joined.Load() && !c.left.Load() {
		if data, err := protocol.Encode(protocol.Leave()); err == nil {
			h.relay(c, data)
			h.metrics.Relayed(string(protocol.TypeLeave))
		}
	}
	h.logger.Debug("client disconnected", zap.String("room", c.room), zap.String("client", c.id))
}

// Room reports the current state of one room.
func (h *Hub) Room(id string) (RoomInfo, bool) {
	id = protocol.NormalizeRoomID(id)
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[id]
	if !ok {
		return RoomInfo{ID: id}, false
	}
	return RoomInfo{ID: id, Clients: len(rm.clients)}, true
}

// Rooms lists the open rooms sorted by ID.
func (h *Hub) Rooms() []RoomInfo {
	h.mu.Lock()
	out := make([]RoomInfo, 0, len(h.rooms))
	for id, rm := range h.rooms {
		out = append(out, RoomInfo{ID: id, Clients: len(rm.clients)})
	}
	h.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close disconnects every client and waits for their goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var conns []*websocket.Conn
	for _, rm := range h.rooms {
		for c := range rm.clients {
			conns = append(conns, c.conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	h.wg.Wait()
}

type client struct {
	id   string
	room string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	joined    atomic.Bool
	left      atomic.Bool
	closeOnce sync.Once
}

func (c *client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	interval := c.hub.opts.PingInterval
	pongWait := interval + interval/2
	c.conn.SetReadLimit(c.hub.opts.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.hub.logger.Debug("read failed", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		msg, err := protocol.Parse(data)
		if err != nil {
			c.hub.logger.Debug("dropping malformed message", zap.String("client", c.id), zap.Error(err))
			c.hub.metrics.Dropped("malformed")
			continue
		}
		switch msg.Type {
		case protocol.TypeJoin:
			c.joined.Store(true)
			c.left.Store(false)
		case protocol.TypeLeave:
			c.left.Store(true)
		}
		c.hub.relay(c, data)
		c.hub.metrics.Relayed(string(msg.Type))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
