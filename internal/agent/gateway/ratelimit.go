package gateway

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-log admission gate. It never waits for capacity:
// a denied caller is expected to fall back immediately.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	stamps []time.Time
}

func NewRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{limit: limit, window: window, now: now}
}

// TryAdmit purges timestamps outside the trailing window and admits, recording
// the current instant, only while the remaining count is below the limit.
func (r *RateLimiter) TryAdmit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.purge(now)
	if len(r.stamps) >= r.limit {
		return false
	}
	r.stamps = append(r.stamps, now)
	return true
}

// Count returns the number of admissions in the trailing window.
func (r *RateLimiter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purge(r.now())
	return len(r.stamps)
}

func (r *RateLimiter) Limit() int { return r.limit }

func (r *RateLimiter) Reset() {
	r.mu.Lock()
	r.stamps = nil
	r.mu.Unlock()
}

// purge drops stamps at least one window old. Stamps are appended in clock
// order so the first one still inside the window splits the slice.
func (r *RateLimiter) purge(now time.Time) {
	i := 0
	for i < len(r.stamps) && now.Sub(r.stamps[i]) >= r.window {
		i++
	}
	if i > 0 {
		r.stamps = append(r.stamps[:0], r.stamps[i:]...)
	}
}
