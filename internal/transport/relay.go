package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bidtrack/bidtrack/internal/logger"
)

const defaultRelayPublishTimeout = 10 * time.Second

// Relay is the stateless transport backend for deployments that cannot
// hold persistent connections. Each room name doubles as a Pub/Sub
// channel; the broker enforces channel isolation and fans out to whoever
// is subscribed, with the same drop-if-nobody-listens semantics as the
// hub. No server-side membership state exists.
type Relay struct {
	client         redis.UniversalClient
	logger         logger.Logger
	tracer         trace.Tracer
	publishTimeout time.Duration
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithPublishTimeout bounds each publish call.
func WithPublishTimeout(timeout time.Duration) RelayOption {
	return func(r *Relay) {
		if timeout > 0 {
			r.publishTimeout = timeout
		}
	}
}

// NewRelay creates a relay backend on an established Redis client.
func NewRelay(client redis.UniversalClient, log logger.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		client:         client,
		logger:         log,
		tracer:         otel.Tracer("bidtrack-relay"),
		publishTimeout: defaultRelayPublishTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// PublishToUser publishes to the user's channel.
func (r *Relay) PublishToUser(ctx context.Context, userID uuid.UUID, event string, payload any) error {
	return r.publish(ctx, UserRoom(userID), event, payload)
}

// PublishToAdmins publishes to the admin channel.
func (r *Relay) PublishToAdmins(ctx context.Context, event string, payload any) error {
	return r.publish(ctx, AdminRoom, event, payload)
}

// PublishToAll publishes to the broadcast channel.
func (r *Relay) PublishToAll(ctx context.Context, event string, payload any) error {
	return r.publish(ctx, BroadcastRoom, event, payload)
}

func (r *Relay) publish(ctx context.Context, channel, event string, payload any) error {
	ctx, span := r.tracer.Start(ctx, "relay.publish",
		trace.WithAttributes(
			attribute.String("channel", channel),
			attribute.String("event", event),
		))
	defer span.End()

	message, err := json.Marshal(Event{Name: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	if err := r.client.Publish(pubCtx, channel, message).Err(); err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}

	r.logger.Debug("published to relay",
		logger.String("channel", channel),
		logger.String("event", event),
	)
	return nil
}

// Close is a no-op: the Redis client is shared and owned by the app.
func (r *Relay) Close() error {
	return nil
}
