package http

import (
	"sync"
	"time"
)

// rateLimiter caps inbound frames per connection in fixed windows.
// A zero limit allows everything.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	counter int
	resetAt time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{limit: limit, window: window, now: time.Now}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !now.Before(r.resetAt) {
		r.counter = 0
		r.resetAt = now.Add(r.window)
	}
	r.counter++
	return r.counter <= r.limit
}
