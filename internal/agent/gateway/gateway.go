// Package gateway guards every call to the text model. It serves cached
// answers, enforces backoff, rate and quota admission, dispatches the call
// to a bounded worker pool and degrades to templated fallbacks on any
// failure, so callers always receive text.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/manmitra-core/server/internal/agent/fallback"
	"github.com/manmitra-core/server/internal/agent/llm"
	"github.com/manmitra-core/server/internal/agent/model"
	logx "github.com/manmitra-core/server/pkg/logger"
)

const rateWindow = time.Minute

// Observer receives gateway events, typically for metrics.
type Observer interface {
	ObserveOutcome(o Outcome)
	ObserveModelCall(d time.Duration, err error)
}

// Request is one generation request.
type Request struct {
	Prompt      string
	Temperature float32
	// FallbackText is classified for fallback replies instead of Prompt when
	// set, so templated prompts do not skew topic detection.
	FallbackText string
}

type options struct {
	now      func() time.Time
	fallback *fallback.Responder
	observer Observer
}

type Option func(*options)

// WithClock injects the time source shared by every state component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithFallback(r *fallback.Responder) Option {
	return func(o *options) { o.fallback = r }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Gateway owns all admission state. Create one per process with New and
// release it with Close.
type Gateway struct {
	gen      llm.Generator
	fallback *fallback.Responder
	observer Observer
	now      func() time.Time
	timeout  time.Duration

	cache   *ResponseCache
	limiter *RateLimiter
	quota   *QuotaTracker
	backoff *BackoffController

	// admit makes the backoff, rate and quota checks one step.
	admit sync.Mutex
	group singleflight.Group
	pool  *ants.Pool
}

// New builds a Gateway. A nil gen runs the gateway in fallback-only mode.
func New(cfg model.GatewayConfig, gen llm.Generator, opts ...Option) (*Gateway, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fallback == nil {
		o.fallback = fallback.New(nil)
	}

	if cfg.ModelTimeout <= 0 {
		return nil, fmt.Errorf("model timeout must be greater than 0, got %s", cfg.ModelTimeout)
	}

	cache, err := NewResponseCache(cfg.CacheCapacity, cfg.CacheTTL, o.now)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}
	pool, err := newWorkerPool(cfg.Workers)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		gen:      gen,
		fallback: o.fallback,
		observer: o.observer,
		now:      o.now,
		timeout:  cfg.ModelTimeout,
		cache:    cache,
		limiter:  NewRateLimiter(cfg.RequestsPerMinute, rateWindow, o.now),
		quota:    NewQuotaTracker(cfg.DailyTokenLimit, o.now),
		backoff:  NewBackoffController(cfg.BackoffBase, cfg.BackoffCap, o.now),
		pool:     pool,
	}, nil
}

// Close releases the worker pool. Requests after Close fall back.
func (g *Gateway) Close() {
	g.pool.Release()
}

func (g *Gateway) Configured() bool { return g.gen != nil }

// Respond returns text for the prompt. It never fails.
func (g *Gateway) Respond(ctx context.Context, prompt string, temperature float32) string {
	return g.Generate(ctx, Request{Prompt: prompt, Temperature: temperature}).Text
}

// Generate is Respond with the path that produced the text attached.
func (g *Gateway) Generate(ctx context.Context, req Request) Outcome {
	fbText := req.FallbackText
	if fbText == "" {
		fbText = req.Prompt
	}

	if g.gen == nil {
		return g.finish(Outcome{Kind: KindFallback, Reason: ReasonUnconfigured}, fbText)
	}

	fp := Fingerprint(req.Prompt, req.Temperature)
	if text, ok := g.cache.Get(fp); ok {
		return g.finish(Outcome{Kind: KindCached, Text: text, Fingerprint: fp}, fbText)
	}

	v, _, shared := g.group.Do(fp, func() (any, error) {
		return g.generate(ctx, req, fp), nil
	})
	o := v.(Outcome)
	if shared {
		logx.Debug().Str("fingerprint", fp).Str("kind", string(o.Kind)).Msg("Shared in-flight model call")
	}
	return g.finish(o, fbText)
}

func (g *Gateway) finish(o Outcome, fbText string) Outcome {
	if o.Kind == KindFallback {
		o.Text = g.fallback.Respond(fbText)
	}
	if g.observer != nil {
		g.observer.ObserveOutcome(o)
	}
	return o
}

// generate runs admission and the model call for a cache miss. Fallback
// outcomes are returned without text; finish fills it in per caller.
func (g *Gateway) generate(ctx context.Context, req Request, fp string) Outcome {
	if text, ok := g.cache.Get(fp); ok {
		return Outcome{Kind: KindCached, Text: text, Fingerprint: fp}
	}

	estimate := EstimateTokens(req.Prompt)
	if reason, ok := g.admitCall(estimate); !ok {
		logx.Debug().Str("reason", string(reason)).Int("estimated_tokens", estimate).Msg("Model call not admitted")
		return Outcome{Kind: KindFallback, Reason: reason, Fingerprint: fp}
	}

	text, err := g.call(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		g.quota.Release(estimate)
		reason := g.recordFailure(err)
		return Outcome{Kind: KindFallback, Reason: reason, Fingerprint: fp}
	}

	g.quota.Commit(estimate)
	g.backoff.RecordSuccess()
	g.cache.Put(fp, text)
	logx.Debug().
		Int("estimated_tokens", estimate).
		Int("daily_tokens_used", g.quota.Used()).
		Msg("Model call succeeded")
	return Outcome{Kind: KindGenerated, Text: text, Fingerprint: fp}
}

func (g *Gateway) admitCall(estimate int) (Reason, bool) {
	g.admit.Lock()
	defer g.admit.Unlock()

	if g.backoff.InBackoff() {
		return ReasonBackoff, false
	}
	if !g.limiter.TryAdmit() {
		return ReasonRateLimited, false
	}
	if !g.quota.Reserve(estimate) {
		return ReasonQuotaExhausted, false
	}
	return "", true
}

// call runs the model off every lock with its own deadline. The shared call
// is detached from the first caller's cancellation since other callers may
// be waiting on it.
func (g *Gateway) call(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	start := time.Now()
	text, err := dispatch(callCtx, g.pool, func(ctx context.Context) (string, error) {
		return g.gen.GenerateText(ctx, req.Prompt, req.Temperature)
	})
	if g.observer != nil && !errors.Is(err, errOverloaded) {
		g.observer.ObserveModelCall(time.Since(start), err)
	}
	return text, err
}

// recordFailure classifies a failed call and starts a backoff when the
// failure was a timeout or a throttling response.
func (g *Gateway) recordFailure(err error) Reason {
	switch {
	case errors.Is(err, errOverloaded):
		logx.Warn().Err(err).Msg("Model call rejected, worker pool overloaded")
		return ReasonOverloaded
	case errors.Is(err, context.DeadlineExceeded):
		d := g.backoff.RecordFailure(err.Error())
		logx.Warn().Err(err).Dur("backoff", d).Msg("Model call timed out, backing off")
		return ReasonTimeout
	case IsThrottleError(err.Error()):
		d := g.backoff.RecordFailure(err.Error())
		logx.Warn().Err(err).Dur("backoff", d).
			Int("requests_this_minute", g.limiter.Count()).
			Int("daily_tokens_used", g.quota.Used()).
			Msg("Model rate limited, backing off")
		return ReasonUpstreamError
	default:
		logx.Error().Err(err).Msg("Model call failed")
		return ReasonUpstreamError
	}
}
