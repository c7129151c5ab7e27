// Package cache holds the short-lived, per-user state that lives in Redis:
// complaint rate counters and revoked session tokens.
package cache

import (
	"context"
	"time"
)

// Counter counts events per key inside a fixed window that starts with the
// first event.
type Counter interface {
	// Incr bumps key and returns the new count and the time left in its window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Denylist records token ids that were logged out before they expired.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
