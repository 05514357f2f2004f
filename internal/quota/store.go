package quota

import (
	"context"
	"time"
)

// Result is the outcome of one counted request against a window.
type Result struct {
	Allowed bool
	Count   int       // admitted requests in the window, including this one if allowed
	ResetAt time.Time // when the window rolls over
}

// Store tracks metered usage in fixed windows. The increment-and-compare
// must be atomic per key: two concurrent calls for the same key must never
// both be admitted when a single slot of quota remains.
type Store interface {
	// IncrWithCeiling counts one request against the window containing now.
	// A request that would push the count past ceiling is rejected without
	// being counted.
	IncrWithCeiling(ctx context.Context, key string, ceiling int, window time.Duration, now time.Time) (Result, error)

	// Peek reads the current count for the window containing now without
	// counting anything.
	Peek(ctx context.Context, key string, window time.Duration, now time.Time) (int, error)
}

// windowBucket returns the fixed-window index containing now.
func windowBucket(now time.Time, window time.Duration) int64 {
	return now.Unix() / int64(window.Seconds())
}

// windowResetAt returns the start of the window after the one containing now.
func windowResetAt(now time.Time, window time.Duration) time.Time {
	secs := int64(window.Seconds())
	return time.Unix((now.Unix()/secs+1)*secs, 0)
}
