// Package ratelimit gates inbound requests with a per-key counter store.
// Two backends implement the same contract: an in-process store for
// single-instance deployments and a Redis store shared across instances.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of admitting one request for a key.
type Decision struct {
	Allowed bool
	// RetryAfter is how long the client should wait before retrying.
	// Only meaningful when Allowed is false.
	RetryAfter time.Duration
	// Remaining is the number of requests left in the current window.
	Remaining int
}

// Limiter admits or rejects requests per client key. Implementations must be
// safe for concurrent use and atomic per key: many simultaneous requests for
// the same key never over-admit.
type Limiter interface {
	Admit(ctx context.Context, key string) (Decision, error)
}
