package transport

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// clientIDCounter is used to generate unique client IDs.
var clientIDCounter atomic.Int64

// client represents one connected session in the hub registry.
type client struct {
	id      string
	rooms   []string
	events  chan Event
	ctx     context.Context
	cancel  context.CancelFunc
	closed  atomic.Bool
	closeMu sync.Mutex
}

func newClient(ctx context.Context, rooms []string, bufferSize int) *client {
	clientCtx, cancel := context.WithCancel(ctx)

	return &client{
		id:     generateClientID(),
		rooms:  rooms,
		events: make(chan Event, bufferSize),
		ctx:    clientCtx,
		cancel: cancel,
	}
}

// generateClientID creates a unique client identifier.
func generateClientID() string {
	id := clientIDCounter.Add(1)
	return fmt.Sprintf("hub-client-%d-%d", time.Now().UnixNano(), id)
}

// close terminates the client connection.
func (c *client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed.Load() {
		return
	}

	c.closed.Store(true)
	c.cancel()
	close(c.events)
}

// send attempts to deliver an event to the client.
// Returns false if the client buffer is full (slow client).
func (c *client) send(event Event) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed.Load() {
		return false
	}

	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}
