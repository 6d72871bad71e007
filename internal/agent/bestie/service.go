// Package bestie is the entry point for chat and moderation requests.
package bestie

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/graph"
	"github.com/manmitra-core/server/internal/agent/model"
	"github.com/manmitra-core/server/internal/agent/moderation"
	"github.com/manmitra-core/server/internal/agent/safety"
	"github.com/manmitra-core/server/internal/audit"
	"github.com/manmitra-core/server/internal/core"
	errx "github.com/manmitra-core/server/internal/core/error"
	logx "github.com/manmitra-core/server/pkg/logger"
)

// ErrAlertsDisabled is returned when no alert repository is configured.
var ErrAlertsDisabled = errors.New("crisis alert repository not configured")

// Gateway is the part of the model gateway the service reports on.
type Gateway interface {
	Status() gateway.Status
	ResetLimits()
}

// AuditLog persists safety events.
type AuditLog interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// Recorder receives safety counters.
type Recorder interface {
	RecordCrisis(severity model.Severity)
	RecordModeration(res model.ModerationResult)
}

// Deps wires the service. Alerts, Audit and Metrics are optional.
type Deps struct {
	Gate        *safety.Gate
	Runner      graph.Runner
	Decider     *moderation.Decider
	Gateway     Gateway
	Alerts      model.AlertRepository
	Audit       AuditLog
	Metrics     Recorder
	Environment core.Environment
	APIKey      string
}

type Service struct {
	gate    *safety.Gate
	runner  graph.Runner
	decider *moderation.Decider
	gw      Gateway
	alerts  model.AlertRepository
	audit   AuditLog
	metrics Recorder
	env     core.Environment
	apiKey  string
	now     func() time.Time
}

func New(d Deps) (*Service, error) {
	switch {
	case d.Gate == nil:
		return nil, fmt.Errorf("safety gate is nil")
	case d.Runner == nil:
		return nil, fmt.Errorf("chat runner is nil")
	case d.Decider == nil:
		return nil, fmt.Errorf("moderation decider is nil")
	case d.Gateway == nil:
		return nil, fmt.Errorf("gateway is nil")
	}
	return &Service{
		gate:    d.Gate,
		runner:  d.Runner,
		decider: d.Decider,
		gw:      d.Gateway,
		alerts:  d.Alerts,
		audit:   d.Audit,
		metrics: d.Metrics,
		env:     d.Environment,
		apiKey:  d.APIKey,
		now:     time.Now,
	}, nil
}

// ProcessMessage validates the message and runs the chat pipeline. Only
// validation failures are returned as errors; anything else degrades to a
// static supportive reply.
func (s *Service) ProcessMessage(ctx context.Context, req model.ChatRequest) (*model.ChatResult, error) {
	v := s.gate.Validate(req.Message)
	if !v.Valid {
		return nil, errx.Validation(v.Reason)
	}

	in := model.ChatInput{
		RequestID: uuid.NewString(),
		Message:   v.SanitizedText,
		History:   req.History,
		Topic:     req.Topic,
		UserID:    req.UserID,
	}

	res, err := s.runner.Invoke(ctx, in)
	if err != nil {
		logx.Error().Err(err).Str("request_id", in.RequestID).Msg("chat pipeline failed")
		return &model.ChatResult{
			Response: model.SupportMessage,
			Agent:    model.AgentListener,
			Type:     model.ResultTypeChat,
			Metadata: map[string]any{
				"request_id": in.RequestID,
				"source":     string(gateway.KindFallback),
				"error":      "pipeline_error",
			},
		}, nil
	}

	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}
	res.Metadata["request_id"] = in.RequestID
	if res.CrisisDetected {
		s.onCrisis(ctx, in, res)
	}
	return res, nil
}

// onCrisis fans a crisis out to metrics, the counsellor queue and the audit
// log. Failures are logged and never change the reply.
func (s *Service) onCrisis(ctx context.Context, in model.ChatInput, res *model.ChatResult) {
	severity := model.SeverityLow
	if res.CrisisLevel != nil {
		severity = *res.CrisisLevel
	}
	patterns, _ := res.Metadata["matched_patterns"].([]string)

	if s.metrics != nil {
		s.metrics.RecordCrisis(severity)
	}

	if s.alerts != nil {
		alert := &model.CrisisAlert{
			ID:              uuid.NewString(),
			RequestID:       in.RequestID,
			UserID:          in.UserID,
			Severity:        severity,
			MatchedPatterns: patterns,
			CreatedAt:       s.now().UTC(),
		}
		if err := s.alerts.Publish(ctx, alert); err != nil {
			logx.Error().Err(err).Str("request_id", in.RequestID).Msg("failed to publish crisis alert")
		} else {
			res.Metadata["alert_id"] = alert.ID
		}
	}

	if s.audit != nil {
		err := s.audit.Log(ctx, audit.Entry{
			RequestID: in.RequestID,
			Kind:      audit.KindCrisis,
			UserID:    in.UserID,
			Outcome:   string(severity),
			TextHash:  audit.HashText(in.Message),
			Patterns:  patterns,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			logx.Error().Err(err).Str("request_id", in.RequestID).Msg("failed to audit crisis")
		}
	}
}

// ModeratePost validates and classifies a forum post.
func (s *Service) ModeratePost(ctx context.Context, text string) (model.ModerationResult, error) {
	v := s.gate.Validate(text)
	if !v.Valid {
		return model.ModerationResult{}, errx.Validation(v.Reason)
	}

	res := s.decider.Decide(ctx, v.SanitizedText)
	if s.metrics != nil {
		s.metrics.RecordModeration(res)
	}
	if s.audit != nil && res.Decision == model.DecisionBlock {
		err := s.audit.Log(ctx, audit.Entry{
			RequestID: uuid.NewString(),
			Kind:      audit.KindModeration,
			Outcome:   string(res.Decision),
			Method:    res.Method,
			TextHash:  audit.HashText(v.SanitizedText),
			Patterns:  res.FlaggedContent,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			logx.Error().Err(err).Msg("failed to audit moderation block")
		}
	}
	return res, nil
}

func (s *Service) GetStatus() gateway.Status {
	return s.gw.Status()
}

// ResetLimits clears the rate window and backoff. It is refused in production.
func (s *Service) ResetLimits() error {
	if !s.env.AllowsMaintenance() {
		return errx.Forbidden(fmt.Errorf("reset limits in %s", s.env))
	}
	s.gw.ResetLimits()
	logx.Warn().Str("environment", s.env.String()).Msg("admission limits reset")
	return nil
}

// RecentAlerts lists queued crisis alerts, oldest first.
func (s *Service) RecentAlerts(ctx context.Context, limit int) ([]*model.CrisisAlert, error) {
	if s.alerts == nil {
		return nil, errx.New(ErrAlertsDisabled, http.StatusServiceUnavailable, ErrAlertsDisabled.Error())
	}
	return s.alerts.Recent(ctx, limit)
}
