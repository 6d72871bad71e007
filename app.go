package main

import (
	"context"
	"fmt"

	"github.com/manmitra-core/server/internal/agent/bestie"
	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/graph"
	"github.com/manmitra-core/server/internal/agent/llm"
	"github.com/manmitra-core/server/internal/agent/moderation"
	"github.com/manmitra-core/server/internal/agent/repo"
	"github.com/manmitra-core/server/internal/agent/safety"
	"github.com/manmitra-core/server/internal/audit"
	"github.com/manmitra-core/server/internal/core"
	"github.com/manmitra-core/server/internal/metrics"
	logx "github.com/manmitra-core/server/pkg/logger"
)

// app holds the wired service and the resources that must be released.
type app struct {
	cfg     AppConfig
	svc     *bestie.Service
	metrics *metrics.Metrics
	auditor *audit.Logger
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp builds the full pipeline. Missing optional infrastructure (model
// key, Redis, audit database) degrades features instead of failing.
func newApp(ctx context.Context, cfg AppConfig) (*app, error) {
	env := core.ParseEnvironment(cfg.Server.Environment)
	a := &app{cfg: cfg, metrics: metrics.New()}

	var gen llm.Generator
	if cfg.Gemini.APIKey == "" {
		logx.Warn().Msg("GEMINI_API_KEY not set, replies use fallback templates")
	} else if g, err := llm.NewGemini(ctx, cfg.Gemini); err != nil {
		logx.Error().Err(err).Msg("failed to create Gemini client, replies use fallback templates")
	} else {
		gen = g
	}

	gw, err := gateway.New(cfg.Gateway, gen, gateway.WithObserver(a.metrics))
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	a.closers = append(a.closers, gw.Close)
	a.metrics.WatchGateway(gw.Status)

	gate, err := safety.New(cfg.Safety)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create safety gate: %w", err)
	}

	runner, err := graph.BuildChatGraph(ctx, graph.Config{
		Detector:     gate,
		Generator:    gw,
		Conversation: cfg.Conversation,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build chat graph: %w", err)
	}

	deps := bestie.Deps{
		Gate:        gate,
		Runner:      runner,
		Decider:     moderation.NewDecider(gw, cfg.Conversation.SafetyTemperature),
		Gateway:     gw,
		Metrics:     a.metrics,
		Environment: env,
		APIKey:      cfg.Gemini.APIKey,
	}

	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			logx.Error().Err(err).Msg("redis unavailable, crisis alerts are logged only")
		} else {
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			deps.Alerts = repo.NewRedisAlertRepository(rdb, cfg.Alerts.TTL)
			logx.Info().Msg("crisis alerts publish to redis")
		}
	}

	if cfg.Audit.DBPath != "" {
		l, err := audit.New(cfg.Audit)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		a.auditor = l
		a.closers = append(a.closers, func() { _ = l.Close() })
		deps.Audit = l
	}

	a.svc, err = bestie.New(deps)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
