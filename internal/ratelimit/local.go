package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// entry holds a rate limiter and last seen timestamp for cleanup.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Local provides per-key rate limiting backed by in-process token buckets.
type Local struct {
	limiters  map[string]*entry
	mu        sync.Mutex
	rateLimit rate.Limit
	burst     int
	window    time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

var _ Limiter = (*Local)(nil)

// NewLocal creates a local limiter allowing the given requests per minute,
// with a burst of the same size.
func NewLocal(requestsPerMinute int) *Local {
	l := &Local{
		limiters:  make(map[string]*entry),
		rateLimit: rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:     requestsPerMinute,
		window:    time.Minute,
		stop:      make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Admit reserves one request for the key. When the bucket is exhausted the
// reservation is cancelled and the decision carries the wait until the next
// token becomes available.
func (l *Local) Admit(_ context.Context, key string) (Decision, error) {
	lim := l.getLimiter(key)

	res := lim.Reserve()
	if !res.OK() {
		return Decision{Allowed: false, RetryAfter: l.window}, nil
	}

	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}

	return Decision{Allowed: true, Remaining: int(lim.Tokens())}, nil
}

// Close stops the background cleanup goroutine.
func (l *Local) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// getLimiter returns the rate limiter for the given key, creating one if it
// doesn't exist.
func (l *Local) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.limiters[key]
	if !exists {
		limiter := rate.NewLimiter(l.rateLimit, l.burst)
		l.limiters[key] = &entry{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	e.lastSeen = time.Now()
	return e.limiter
}

func (l *Local) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for key, e := range l.limiters {
				if time.Since(e.lastSeen) > time.Hour {
					delete(l.limiters, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
