package gateway

import (
	"strings"
	"sync"
	"time"
)

// HintedRetryDelay is used when the upstream error suggests a short retry.
const HintedRetryDelay = 35 * time.Second

// BackoffController holds the failure-driven cool-down state. A success
// resets the failure streak but never shortens a cool-down already in force.
type BackoffController struct {
	mu       sync.Mutex
	base     time.Duration
	maxDelay time.Duration
	now      func() time.Time
	until    time.Time
	failures int
}

type BackoffSnapshot struct {
	InBackoff           bool
	Until               *time.Time
	ConsecutiveFailures int
}

func NewBackoffController(base, maxDelay time.Duration, now func() time.Time) *BackoffController {
	if now == nil {
		now = time.Now
	}
	return &BackoffController{base: base, maxDelay: maxDelay, now: now}
}

func (b *BackoffController) InBackoff() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.now().Before(b.until)
}

// RecordFailure extends the failure streak and starts a cool-down. The
// returned duration is what was applied.
func (b *BackoffController) RecordFailure(errText string) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	d := b.delay(errText)
	b.until = b.now().Add(d)
	return d
}

func (b *BackoffController) delay(errText string) time.Duration {
	if strings.Contains(errText, "retry_delay") || strings.Contains(errText, "30") {
		return HintedRetryDelay
	}
	d := b.base
	for i := 0; i < b.failures; i++ {
		d *= 2
		if d >= b.maxDelay {
			return b.maxDelay
		}
	}
	return d
}

func (b *BackoffController) RecordSuccess() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

// Reset clears both the streak and any active cool-down.
func (b *BackoffController) Reset() {
	b.mu.Lock()
	b.failures = 0
	b.until = time.Time{}
	b.mu.Unlock()
}

func (b *BackoffController) Snapshot() BackoffSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := BackoffSnapshot{
		InBackoff:           b.now().Before(b.until),
		ConsecutiveFailures: b.failures,
	}
	if !b.until.IsZero() {
		until := b.until
		s.Until = &until
	}
	return s
}
