package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/model"
)

type stubGenerator struct {
	out  gateway.Outcome
	reqs []gateway.Request
}

func (s *stubGenerator) Generate(_ context.Context, req gateway.Request) gateway.Outcome {
	s.reqs = append(s.reqs, req)
	return s.out
}

func TestDecideUsesModelVerdict(t *testing.T) {
	gen := &stubGenerator{out: gateway.Outcome{
		Kind: gateway.KindGenerated,
		Text: "```json\n{\"decision\": \"block\", \"confidence\": 0.95, \"reason\": \"harassment\"}\n```",
	}}
	d := NewDecider(gen, 0)

	res := d.Decide(context.Background(), "you are worthless")
	assert.Equal(t, model.DecisionBlock, res.Decision)
	assert.InDelta(t, 0.95, res.Confidence, 1e-9)
	assert.Equal(t, model.MethodModel, res.Method)

	require.Len(t, gen.reqs, 1)
	assert.InDelta(t, 0.2, gen.reqs[0].Temperature, 1e-6)
	assert.Contains(t, gen.reqs[0].Prompt, `"you are worthless"`)
	assert.Equal(t, "you are worthless", gen.reqs[0].FallbackText)
}

func TestDecideMalformedVerdictFallsBackToRules(t *testing.T) {
	gen := &stubGenerator{out: gateway.Outcome{Kind: gateway.KindGenerated, Text: "this post seems fine to me"}}
	d := NewDecider(gen, 0.2)

	res := d.Decide(context.Background(), "I will kill this exam")
	assert.Equal(t, model.DecisionBlock, res.Decision)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Equal(t, model.MethodRuleBased, res.Method)
	assert.Equal(t, []string{"kill"}, res.FlaggedContent)
}

func TestDecideGatewayFallbackSkipsParsing(t *testing.T) {
	gen := &stubGenerator{out: gateway.Outcome{
		Kind:   gateway.KindFallback,
		Reason: gateway.ReasonRateLimited,
		Text:   `{"decision": "block", "confidence": 1, "reason": "x"}`,
	}}
	res := NewDecider(gen, 0.2).Decide(context.Background(), "lovely weather today")
	assert.Equal(t, model.DecisionAllow, res.Decision)
	assert.Equal(t, model.MethodRuleBased, res.Method)
	assert.Equal(t, "No issues detected", res.Reason)
}

func TestDecideWithoutGenerator(t *testing.T) {
	res := NewDecider(nil, 0).Decide(context.Background(), "Bomb THREAT")
	assert.Equal(t, model.DecisionBlock, res.Decision)
	assert.ElementsMatch(t, []string{"threat", "bomb"}, res.FlaggedContent)
}

func TestRuleBased(t *testing.T) {
	tests := []struct {
		text     string
		decision model.Decision
	}{
		{"Thanks everyone for the study tips", model.DecisionAllow},
		{"I HATE this place", model.DecisionBlock},
		{"people like you should die", model.DecisionBlock},
		{strings.Repeat("calm ", 20), model.DecisionAllow},
	}
	for _, tc := range tests {
		res := RuleBased(tc.text)
		assert.Equal(t, tc.decision, res.Decision, tc.text)
		assert.Equal(t, 0.8, res.Confidence)
		assert.Equal(t, model.MethodRuleBased, res.Method)
	}
}
