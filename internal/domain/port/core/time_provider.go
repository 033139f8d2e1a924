package core

import (
	"context"
	"time"
)

// TimeProvider abstracts the clock so lifecycle rules (session expiry,
// handshake TTL, job staleness) can be tested deterministically.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc)
}
