package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"net/http"
	"sync"

	"crewline/internal/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

// Room name prefixes. Every client joins its personal room on authentication
// and the chat rooms of its active groups.
const (
	RoomUserPrefix  = "user:"
	RoomChatPrefix  = "chat:"
	RoomGroupPrefix = "group:"
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type roomBucket struct {
	sync.RWMutex
	rooms map[string]map[string]*Client
}

// Hub routes events between connected clients. Rooms live in sharded buckets;
// a client may be a member of many rooms at once.
type Hub struct {
	shards     [shardCount]*roomBucket
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	presence *PresenceRegistry
	gateway  *Gateway
	logger   *zap.Logger

	clientsMu sync.RWMutex
	clients   map[string]*Client // by connection id

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(presence *PresenceRegistry, gateway *Gateway, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		presence:   presence,
		gateway:    gateway,
		logger:     logger,
		clients:    make(map[string]*Client),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &roomBucket{
			rooms: make(map[string]map[string]*Client),
		}
	}

	gateway.SetHub(h)

	go h.run()

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}
					h.gateway.HandleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// addClient activates an authenticated client: personal room join, presence
// registration, and the online broadcast when this was the user's first
// connection.
func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c.ID] = c
	h.clientsMu.Unlock()

	h.joinRoom(c, RoomUserPrefix+c.UserID())

	cameOnline := h.presence.Register(c.UserID(), c.ID)
	metricConnections.Inc()

	h.logger.Info("client registered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID()),
		zap.Bool("came_online", cameOnline),
	)

	if cameOnline {
		h.BroadcastAll(event.Marshal(event.EventStatusChange, "", event.StatusChangePayload{
			UserID: c.UserID(),
			Online: true,
		}), c.ID)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	if _, exists := h.clients[c.ID]; !exists {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()

	for _, room := range c.Rooms() {
		h.leaveRoom(c, room)
	}

	wentOffline := false
	if c.UserID() != "" {
		wentOffline = h.presence.Unregister(c.UserID(), c.ID)
	}
	metricConnections.Dec()

	c.Close()
	h.logger.Info("client removed",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID()),
		zap.Bool("went_offline", wentOffline),
	)

	if wentOffline {
		h.BroadcastAll(event.Marshal(event.EventStatusChange, "", event.StatusChangePayload{
			UserID: c.UserID(),
			Online: false,
		}), c.ID)
	}
}

// JoinRoom adds the client to a room from any goroutine.
func (h *Hub) JoinRoom(c *Client, room string) {
	h.joinRoom(c, room)
}

// LeaveRoom removes the client from a room.
func (h *Hub) LeaveRoom(c *Client, room string) {
	h.leaveRoom(c, room)
}

func (h *Hub) joinRoom(c *Client, room string) {
	sh := getShard(room)
	b := h.shards[sh]
	b.Lock()
	members, ok := b.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		b.rooms[room] = members
		metricRooms.Inc()
	}
	members[c.ID] = c
	b.Unlock()

	c.addRoom(room)
	h.logger.Debug("client joined room",
		zap.String("client_id", c.ID),
		zap.String("room", room),
	)
}

func (h *Hub) leaveRoom(c *Client, room string) {
	sh := getShard(room)
	b := h.shards[sh]
	b.Lock()
	if members, ok := b.rooms[room]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(b.rooms, room)
			metricRooms.Dec()
		}
	}
	b.Unlock()

	c.removeRoom(room)
}

// Publish delivers an event to every room member, optionally excluding one
// connection. Emissions are independent: a slow or full client is kicked (or
// skipped) without blocking delivery to the rest of the room.
func (h *Hub) Publish(room string, ev event.WsEvent, excludeClientID string) {
	sh := getShard(room)
	b := h.shards[sh]

	b.RLock()
	members, ok := b.rooms[room]
	if !ok || len(members) == 0 {
		b.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(members))
	for _, c := range members {
		if c.ID == excludeClientID {
			continue
		}
		clients = append(clients, c)
	}
	b.RUnlock()

	for _, c := range clients {
		h.deliver(c, ev)
	}
	metricEventsOut.Add(float64(len(clients)))
}

// EmitToUser sends an event to every connection of one user via the personal
// room.
func (h *Hub) EmitToUser(userID string, ev event.WsEvent) {
	h.Publish(RoomUserPrefix+userID, ev, "")
}

// BroadcastAll sends an event to every connected client.
func (h *Hub) BroadcastAll(ev event.WsEvent, excludeClientID string) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.ID == excludeClientID {
			continue
		}
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		h.deliver(c, ev)
	}
}

func (h *Hub) deliver(c *Client, ev event.WsEvent) {
	if c.SafeSend(ev, sendTimeout) {
		return
	}
	h.logger.Warn("egress full or closed, unregistering client",
		zap.String("client_id", c.ID),
	)
	if kickOnFull {
		select {
		case h.unregister <- c:
		default:
			c.Close()
		}
	}
}

func getShard(room string) uint32 {
	if room == "" {
		return 0
	}
	sum := sha1.Sum([]byte(room))
	return binary.BigEndian.Uint32(sum[:4]) % shardCount
}

// Stop closes all client connections and shuts the worker pool down.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.RLock()
	for _, c := range h.clients {
		c.Close()
	}
	h.clientsMu.RUnlock()

	close(h.inbound)
	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and starts the handshake window. The client
// stays in the connecting state until it authenticates; the auth timer drops
// it otherwise.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	NewClient(conn, h)
}
