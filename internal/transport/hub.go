package transport

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bidtrack/bidtrack/internal/logger"
)

// Default hub configuration values.
const (
	DefaultClientBufferSize = 100
	DefaultMaxClients       = 1000
)

// Hub is the stateful transport backend: an explicit registry of live
// client sessions keyed by room name. Clients join their rooms when they
// subscribe; publishing to a room with no members is a silent no-op.
// Durability comes solely from the notification store.
type Hub struct {
	logger logger.Logger

	mu      sync.RWMutex
	clients map[string]*client            // by client id
	rooms   map[string]map[string]*client // room -> client id -> client
	closed  bool

	clientBufferSize int
	maxClients       int
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithClientBufferSize sets the per-client event buffer size.
func WithClientBufferSize(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.clientBufferSize = size
		}
	}
}

// WithMaxClients sets the maximum number of concurrent clients (0 = unlimited).
func WithMaxClients(maxClients int) HubOption {
	return func(h *Hub) {
		h.maxClients = maxClients
	}
}

// NewHub creates a new hub backend.
func NewHub(log logger.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		logger:           log,
		clients:          make(map[string]*client),
		rooms:            make(map[string]map[string]*client),
		clientBufferSize: DefaultClientBufferSize,
		maxClients:       DefaultMaxClients,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Subscribe registers a new session in the given rooms and returns its
// event channel plus a cleanup function. The channel is closed on cleanup,
// hub shutdown, or slow-client eviction. A rejected subscription (max
// clients reached or hub closed) returns an already-closed channel.
func (h *Hub) Subscribe(ctx context.Context, rooms ...string) (events <-chan Event, cleanup func()) {
	h.mu.Lock()
	if h.closed || (h.maxClients > 0 && len(h.clients) >= h.maxClients) {
		current := len(h.clients)
		h.mu.Unlock()
		h.logger.Warn("hub subscription rejected",
			logger.Int("max_clients", h.maxClients),
			logger.Int("current_clients", current),
		)
		closedChan := make(chan Event)
		close(closedChan)
		return closedChan, func() {}
	}

	c := newClient(ctx, rooms, h.clientBufferSize)
	h.clients[c.id] = c
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[string]*client)
			h.rooms[room] = members
		}
		members[c.id] = c
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("client joined",
		logger.String("client_id", c.id),
		logger.Any("rooms", rooms),
		logger.Int("total_clients", total),
	)

	go h.watchClient(c)

	return c.events, func() { h.removeClient(c.id) }
}

// watchClient removes the client once its context is cancelled.
func (h *Hub) watchClient(c *client) {
	<-c.ctx.Done()
	h.removeClient(c.id)
}

// PublishToUser emits to all sessions currently in the user's room.
func (h *Hub) PublishToUser(_ context.Context, userID uuid.UUID, event string, payload any) error {
	h.publishToRoom(UserRoom(userID), Event{Name: event, Data: payload})
	return nil
}

// PublishToAdmins emits to all sessions currently in the admin room.
func (h *Hub) PublishToAdmins(_ context.Context, event string, payload any) error {
	h.publishToRoom(AdminRoom, Event{Name: event, Data: payload})
	return nil
}

// PublishToAll emits to every connected session exactly once.
func (h *Hub) PublishToAll(_ context.Context, event string, payload any) error {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.deliver(clients, Event{Name: event, Data: payload})
	return nil
}

// publishToRoom snapshots the room membership and delivers outside the lock.
func (h *Hub) publishToRoom(room string, event Event) {
	h.mu.RLock()
	members := h.rooms[room]
	clients := make([]*client, 0, len(members))
	for _, c := range members {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.deliver(clients, event)
}

// deliver sends an event to each client, evicting any whose buffer is full.
func (h *Hub) deliver(clients []*client, event Event) {
	sent := 0
	slowClients := make([]string, 0)

	for _, c := range clients {
		if c.send(event) {
			sent++
		} else {
			slowClients = append(slowClients, c.id)
		}
	}

	for _, clientID := range slowClients {
		h.logger.Warn("client buffer full, closing slow connection",
			logger.String("client_id", clientID),
			logger.String("event", event.Name),
		)
		h.removeClient(clientID)
	}

	if sent > 0 || len(slowClients) > 0 {
		h.logger.Debug("event delivered",
			logger.String("event", event.Name),
			logger.Int("sent", sent),
			logger.Int("dropped", len(slowClients)),
		)
	}
}

// removeClient drops a client from the registry and all its rooms.
func (h *Hub) removeClient(clientID string) {
	h.mu.Lock()
	c, exists := h.clients[clientID]
	if exists {
		delete(h.clients, clientID)
		for _, room := range c.rooms {
			if members, ok := h.rooms[room]; ok {
				delete(members, clientID)
				if len(members) == 0 {
					delete(h.rooms, room)
				}
			}
		}
	}
	h.mu.Unlock()

	if exists && c != nil {
		c.close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of sessions currently in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every session and rejects future subscriptions.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.rooms = make(map[string]map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	h.logger.Info("hub closed", logger.Int("disconnected", len(clients)))
	return nil
}
