package gateway

import (
	"sync"
	"time"
	"unicode/utf8"
)

// outputAllowance is the fixed number of tokens budgeted for a reply.
const outputAllowance = 150

// EstimateTokens approximates the cost of a prompt at four characters per
// token plus the output allowance.
func EstimateTokens(prompt string) int {
	return utf8.RuneCountInString(prompt)/4 + outputAllowance
}

// QuotaTracker accounts a daily token budget. The counter resets the first
// time it is touched on a calendar date later than the last reset.
//
// Reservations let the gateway claim budget before an in-flight call so two
// concurrent requests cannot both pass a check that only one of them fits.
type QuotaTracker struct {
	mu        sync.Mutex
	limit     int
	used      int
	reserved  int
	lastReset time.Time
	now       func() time.Time
}

func NewQuotaTracker(limit int, now func() time.Time) *QuotaTracker {
	if now == nil {
		now = time.Now
	}
	return &QuotaTracker{limit: limit, lastReset: dateOf(now()), now: now}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (q *QuotaTracker) rollover() {
	today := dateOf(q.now())
	if today.After(q.lastReset) {
		q.used = 0
		q.lastReset = today
	}
}

// CanSpend reports whether n more tokens stay strictly below the daily limit.
func (q *QuotaTracker) CanSpend(n int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.used+n < q.limit
}

// Spend commits n tokens directly, without a prior reservation.
func (q *QuotaTracker) Spend(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	q.used += n
}

// Reserve checks and claims n tokens in one step, counting budget already
// reserved by in-flight calls.
func (q *QuotaTracker) Reserve(n int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.used+q.reserved+n >= q.limit {
		return false
	}
	q.reserved += n
	return true
}

// Commit turns a reservation of n tokens into spent budget.
func (q *QuotaTracker) Commit(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	q.release(n)
	q.used += n
}

// Release drops a reservation of n tokens without spending it.
func (q *QuotaTracker) Release(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.release(n)
}

func (q *QuotaTracker) release(n int) {
	q.reserved -= n
	if q.reserved < 0 {
		q.reserved = 0
	}
}

func (q *QuotaTracker) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.used
}

func (q *QuotaTracker) Limit() int { return q.limit }

func (q *QuotaTracker) Exhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.used >= q.limit
}
