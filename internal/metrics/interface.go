package metrics

import "context"

// Recorder is the counter surface consumed by the services. Tracker is
// the Redis-backed implementation; Nop serves hub-only deployments that
// run without Redis, and tests.
type Recorder interface {
	IncrementTransitions(ctx context.Context, stage string)
	IncrementNotifications(ctx context.Context, notificationType string)
	IncrementDelivered(ctx context.Context)
	IncrementDropped(ctx context.Context)
}

// Nop discards all counter increments.
type Nop struct{}

func (Nop) IncrementTransitions(context.Context, string)   {}
func (Nop) IncrementNotifications(context.Context, string) {}
func (Nop) IncrementDelivered(context.Context)             {}
func (Nop) IncrementDropped(context.Context)               {}
