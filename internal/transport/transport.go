// Package transport delivers notification events to live client sessions.
//
// Two interchangeable backends implement the same three-operation
// contract: Hub keeps an in-process registry of connected sessions
// grouped into rooms, Relay publishes to named Redis Pub/Sub channels
// and leaves fan-out to the broker. Selection happens once at process
// start; business code never branches on the active backend.
package transport

import (
	"context"

	"github.com/google/uuid"
)

// Room names. The hub uses them as registry keys, the relay as channel
// names, so a browser client addresses the same scope either way.
const (
	// AdminRoom receives events targeted at the admin role.
	AdminRoom = "admin_room"

	// BroadcastRoom receives events targeted at every connected session.
	BroadcastRoom = "broadcast"
)

// UserRoom returns the per-user delivery scope name.
func UserRoom(userID uuid.UUID) string {
	return "user_" + userID.String()
}

// Event is one message delivered over a transport connection.
type Event struct {
	// Name is the event name, matching the notification type.
	Name string `json:"event"`
	// Data is the JSON-serializable payload.
	Data any `json:"data"`
}

// Transport publishes events to delivery targets. Delivery is
// best-effort: both backends drop events with no subscribed session, and
// callers must not treat a publish failure as a business failure.
type Transport interface {
	// PublishToUser delivers an event to the user's room.
	PublishToUser(ctx context.Context, userID uuid.UUID, event string, payload any) error

	// PublishToAdmins delivers an event to the admin room.
	PublishToAdmins(ctx context.Context, event string, payload any) error

	// PublishToAll delivers an event to every connected session.
	PublishToAll(ctx context.Context, event string, payload any) error

	// Close releases backend resources and disconnects any live sessions.
	Close() error
}
