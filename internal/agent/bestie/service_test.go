package bestie

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manmitra-core/server/internal/agent/fallback"
	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/graph"
	"github.com/manmitra-core/server/internal/agent/model"
	"github.com/manmitra-core/server/internal/agent/moderation"
	"github.com/manmitra-core/server/internal/agent/safety"
	"github.com/manmitra-core/server/internal/audit"
	"github.com/manmitra-core/server/internal/core"
	errx "github.com/manmitra-core/server/internal/core/error"
)

type fakeAlerts struct {
	mu         sync.Mutex
	published  []*model.CrisisAlert
	publishErr error
}

func (f *fakeAlerts) Publish(_ context.Context, a *model.CrisisAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, a)
	return nil
}

func (f *fakeAlerts) Recent(context.Context, int) ([]*model.CrisisAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published, nil
}

func (f *fakeAlerts) Count(context.Context) (int, error) { return len(f.published), nil }

type fakeAudit struct{ entries []audit.Entry }

func (f *fakeAudit) Log(_ context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeRecorder struct {
	crises     []model.Severity
	moderation []model.ModerationResult
}

func (f *fakeRecorder) RecordCrisis(s model.Severity) { f.crises = append(f.crises, s) }
func (f *fakeRecorder) RecordModeration(r model.ModerationResult) { f.moderation = append(f.moderation, r) }

type failingRunner struct{}

func (failingRunner) Invoke(context.Context, model.ChatInput) (*model.ChatResult, error) {
	return nil, errors.New("graph exploded")
}

type fixture struct {
	svc      *Service
	gw       *gateway.Gateway
	alerts   *fakeAlerts
	audit    *fakeAudit
	recorder *fakeRecorder
}

// newFixture wires the real pipeline around a gateway with no model configured.
func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	gw, err := gateway.New(model.DefaultGatewayConfig(), nil, gateway.WithFallback(fallback.NewSeeded(7)))
	require.NoError(t, err)
	t.Cleanup(gw.Close)

	gate := safety.NewGate(nil, 0, nil)
	runner, err := graph.BuildChatGraph(context.Background(), graph.Config{
		Detector:     gate,
		Generator:    gw,
		Conversation: model.ConversationConfig{ChatTemperature: 0.7, HistoryTurns: 3},
	})
	require.NoError(t, err)

	f := &fixture{gw: gw, alerts: &fakeAlerts{}, audit: &fakeAudit{}, recorder: &fakeRecorder{}}
	deps := Deps{
		Gate:        gate,
		Runner:      runner,
		Decider:     moderation.NewDecider(gw, 0.2),
		Gateway:     gw,
		Alerts:      f.alerts,
		Audit:       f.audit,
		Metrics:     f.recorder,
		Environment: core.Development,
	}
	if mutate != nil {
		mutate(&deps)
	}
	f.svc, err = New(deps)
	require.NoError(t, err)
	return f
}

func TestProcessMessageValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name    string
		message string
		reason  string
	}{
		{name: "empty", message: "", reason: "Message cannot be empty"},
		{name: "whitespace", message: "   \n", reason: "Message cannot be empty"},
		{name: "too long", message: strings.Repeat("a", 3000), reason: "Message too long (max 2000 characters)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.svc.ProcessMessage(context.Background(), model.ChatRequest{Message: tc.message})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errx.IsValidation(err))
			assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
			assert.Equal(t, tc.reason, errx.PublicMessage(err))
		})
	}
}

func TestProcessMessageUnconfiguredModelUsesAcademicFallback(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.ProcessMessage(context.Background(), model.ChatRequest{Message: "exam pressure"})
	require.NoError(t, err)

	assert.Contains(t, fallback.Templates(fallback.TopicAcademic), res.Response)
	assert.Equal(t, model.ResultTypeChat, res.Type)
	assert.False(t, res.CrisisDetected)
	assert.Equal(t, "fallback", res.Metadata["source"])
	assert.Equal(t, "unconfigured", res.Metadata["fallback_reason"])
	assert.NotEmpty(t, res.Metadata["request_id"])
	assert.Empty(t, f.alerts.published)
}

func TestProcessMessageCrisisSideEffects(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.ProcessMessage(context.Background(), model.ChatRequest{
		Message: "I want to kill myself",
		UserID:  "student-42",
	})
	require.NoError(t, err)
	require.True(t, res.CrisisDetected)
	assert.Equal(t, model.SeverityHigh, *res.CrisisLevel)
	assert.Equal(t, safety.CrisisResponse(model.SeverityHigh), res.Response)

	require.Len(t, f.alerts.published, 1)
	alert := f.alerts.published[0]
	assert.Equal(t, "student-42", alert.UserID)
	assert.Equal(t, model.SeverityHigh, alert.Severity)
	assert.Equal(t, res.Metadata["request_id"], alert.RequestID)
	assert.Equal(t, alert.ID, res.Metadata["alert_id"])
	assert.Contains(t, alert.MatchedPatterns, "kill myself")

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, audit.KindCrisis, entry.Kind)
	assert.Equal(t, "high", entry.Outcome)
	assert.Equal(t, audit.HashText("I want to kill myself"), entry.TextHash)

	assert.Equal(t, []model.Severity{model.SeverityHigh}, f.recorder.crises)
}

func TestProcessMessageAlertFailureIsAbsorbed(t *testing.T) {
	f := newFixture(t, nil)
	f.alerts.publishErr = errors.New("redis down")

	res, err := f.svc.ProcessMessage(context.Background(), model.ChatRequest{Message: "I feel like I'm not worth living"})
	require.NoError(t, err)
	assert.True(t, res.CrisisDetected)
	assert.NotContains(t, res.Metadata, "alert_id")
	assert.Len(t, f.audit.entries, 1)
}

func TestProcessMessagePipelineErrorDegrades(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Runner = failingRunner{} })

	res, err := f.svc.ProcessMessage(context.Background(), model.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, model.SupportMessage, res.Response)
	assert.Equal(t, model.AgentListener, res.Agent)
	assert.NotContains(t, res.Response, "exploded")
}

func TestModeratePost(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.ModeratePost(context.Background(), "I will kill you")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionBlock, res.Decision)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Equal(t, model.MethodRuleBased, res.Method)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, audit.KindModeration, f.audit.entries[0].Kind)
	require.Len(t, f.recorder.moderation, 1)

	res, err = f.svc.ModeratePost(context.Background(), "Good luck with finals everyone")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionAllow, res.Decision)
	assert.Len(t, f.audit.entries, 1, "allowed posts are not audited")

	_, err = f.svc.ModeratePost(context.Background(), "")
	assert.True(t, errx.IsValidation(err))
}

func TestResetLimits(t *testing.T) {
	f := newFixture(t, nil)
	assert.NoError(t, f.svc.ResetLimits())

	prod := newFixture(t, func(d *Deps) { d.Environment = core.Production })
	err := prod.svc.ResetLimits()
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, errx.StatusOf(err))
}

func TestRecentAlerts(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Alerts = nil })
	_, err := f.svc.RecentAlerts(context.Background(), 10)
	assert.ErrorIs(t, err, ErrAlertsDisabled)
	assert.Equal(t, http.StatusServiceUnavailable, errx.StatusOf(err))
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t, nil)
	st := f.svc.GetStatus()
	assert.False(t, st.APIKeyConfigured)
	assert.Equal(t, 10, st.RequestsPerMinuteLimit)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}
