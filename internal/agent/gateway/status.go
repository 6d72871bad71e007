package gateway

import (
	"time"

	logx "github.com/manmitra-core/server/pkg/logger"
)

// Status is a point-in-time view of the admission state.
type Status struct {
	APIKeyConfigured       bool       `json:"api_key_configured"`
	RequestsThisMinute     int        `json:"requests_this_minute"`
	RequestsPerMinuteLimit int        `json:"requests_per_minute_limit"`
	DailyTokensUsed        int        `json:"tokens_used_today"`
	DailyTokenLimit        int        `json:"daily_token_limit"`
	QuotaExhausted         bool       `json:"quota_exhausted"`
	InBackoff              bool       `json:"in_backoff"`
	BackoffUntil           *time.Time `json:"backoff_until"`
	ConsecutiveFailures    int        `json:"consecutive_failures"`
	CacheSize              int        `json:"cache_size"`
	CacheHits              uint64     `json:"cache_hits"`
	CacheMisses            uint64     `json:"cache_misses"`
	WorkersRunning         int        `json:"workers_running"`
}

func (g *Gateway) Status() Status {
	b := g.backoff.Snapshot()
	c := g.cache.Stats()
	return Status{
		APIKeyConfigured:       g.Configured(),
		RequestsThisMinute:     g.limiter.Count(),
		RequestsPerMinuteLimit: g.limiter.Limit(),
		DailyTokensUsed:        g.quota.Used(),
		DailyTokenLimit:        g.quota.Limit(),
		QuotaExhausted:         g.quota.Exhausted(),
		InBackoff:              b.InBackoff,
		BackoffUntil:           b.Until,
		ConsecutiveFailures:    b.ConsecutiveFailures,
		CacheSize:              c.Size,
		CacheHits:              c.Hits,
		CacheMisses:            c.Misses,
		WorkersRunning:         g.pool.Running(),
	}
}

// ResetLimits clears the rate window and any backoff. The daily quota and
// the cache are left alone. Callers gate this to non-production use.
func (g *Gateway) ResetLimits() {
	g.admit.Lock()
	defer g.admit.Unlock()

	g.limiter.Reset()
	g.backoff.Reset()
	logx.Warn().Msg("Gateway rate limits and backoff reset")
}
