// Package metrics tracks lifecycle and delivery counters in Redis.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bidtrack/bidtrack/internal/logger"
)

const (
	// KeyPrefix namespaces all metric keys.
	KeyPrefix = "bidtrack:metrics"

	// MetricsTTLDays is how long counters are retained.
	MetricsTTLDays = 30
	hoursPerDay    = 24
)

// Tracker records counters using atomic Redis increments. Counter writes
// never sit on the error path of a business operation: a failed increment
// is logged and dropped.
type Tracker struct {
	client redis.UniversalClient
	logger logger.Logger
}

// NewTracker creates a new metrics tracker
func NewTracker(client redis.UniversalClient, log logger.Logger) *Tracker {
	return &Tracker{
		client: client,
		logger: log,
	}
}

// IncrementTransitions increments the stage-transition counter for a stage
func (t *Tracker) IncrementTransitions(ctx context.Context, stage string) {
	t.increment(ctx, t.key("transitions", stage))
}

// IncrementNotifications increments the created-notifications counter for a type
func (t *Tracker) IncrementNotifications(ctx context.Context, notificationType string) {
	t.increment(ctx, t.key("notifications", notificationType))
}

// IncrementDelivered increments the delivered-events counter
func (t *Tracker) IncrementDelivered(ctx context.Context) {
	t.increment(ctx, t.key("deliveries", "published"))
}

// IncrementDropped increments the dropped-deliveries counter
func (t *Tracker) IncrementDropped(ctx context.Context) {
	t.increment(ctx, t.key("deliveries", "dropped"))
}

// increment performs an atomic INCR with TTL refresh in one pipeline
func (t *Tracker) increment(ctx context.Context, key string) {
	ttl := MetricsTTLDays * hoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to increment counter",
			logger.String("redis_key", key),
			logger.Error(err),
		)
	}
}

// Get returns the current value of a counter (0 if absent)
func (t *Tracker) Get(ctx context.Context, group, name string) (int64, error) {
	val, err := t.client.Get(ctx, t.key(group, name)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("get counter: %w", err)
	}
	return val, nil
}

func (t *Tracker) key(group, name string) string {
	return KeyPrefix + ":" + group + ":" + name
}
