package metrics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bidtrack/bidtrack/internal/logger"
)

func newTestTracker(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewTracker(client, logger.NewNopLogger()), mr
}

func TestTracker_Increment(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	tracker.IncrementTransitions(ctx, "interview")
	tracker.IncrementTransitions(ctx, "interview")
	tracker.IncrementTransitions(ctx, "hired")
	tracker.IncrementNotifications(ctx, "job-hired")
	tracker.IncrementDelivered(ctx)
	tracker.IncrementDropped(ctx)

	testCases := []struct {
		group string
		name  string
		want  int64
	}{
		{"transitions", "interview", 2},
		{"transitions", "hired", 1},
		{"notifications", "job-hired", 1},
		{"deliveries", "published", 1},
		{"deliveries", "dropped", 1},
	}

	for _, tc := range testCases {
		got, err := tracker.Get(ctx, tc.group, tc.name)
		if err != nil {
			t.Fatalf("Get(%s, %s) error: %v", tc.group, tc.name, err)
		}
		if got != tc.want {
			t.Errorf("Get(%s, %s) = %d, want %d", tc.group, tc.name, got, tc.want)
		}
	}

	// Counters expire instead of accumulating forever.
	if ttl := mr.TTL(KeyPrefix + ":transitions:interview"); ttl <= 0 {
		t.Errorf("counter TTL = %v, want positive", ttl)
	}
}

func TestTracker_GetMissingCounter(t *testing.T) {
	tracker, _ := newTestTracker(t)

	got, err := tracker.Get(context.Background(), "transitions", "replied")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != 0 {
		t.Errorf("Get() on absent counter = %d, want 0", got)
	}
}

func TestTracker_IncrementSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	tracker := NewTracker(client, logger.NewNopLogger())

	mr.Close()

	// Must not panic or block; failures are logged and dropped.
	tracker.IncrementTransitions(context.Background(), "applied")
}
