// Package moderation classifies forum posts as allow or block.
package moderation

import (
	"context"
	"strings"

	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/graph/parsers"
	"github.com/manmitra-core/server/internal/agent/graph/prompts"
	"github.com/manmitra-core/server/internal/agent/model"
	logx "github.com/manmitra-core/server/pkg/logger"
)

const (
	DefaultTemperature = 0.2
	ruleConfidence     = 0.8

	reasonFlagged = "Contains potentially harmful or inappropriate language"
	reasonClean   = "No issues detected"
)

// ToxicKeywords are matched as lower-case substrings by the rule-based path.
var ToxicKeywords = []string{
	"hate", "kill", "die", "abuse", "fuck", "shit", "bitch", "asshole",
	"suicide", "harm", "violence", "threat", "bomb", "attack",
}

// Generator is the slice of the gateway the decider needs.
type Generator interface {
	Generate(ctx context.Context, req gateway.Request) gateway.Outcome
}

type Decider struct {
	gen         Generator
	temperature float32
}

func NewDecider(gen Generator, temperature float32) *Decider {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Decider{gen: gen, temperature: temperature}
}

// Decide asks the model for a verdict and falls back to keyword rules when
// the model is unavailable or its answer does not parse.
func (d *Decider) Decide(ctx context.Context, text string) model.ModerationResult {
	if d.gen == nil {
		return RuleBased(text)
	}

	p, err := prompts.RenderModeration(ctx, text)
	if err != nil {
		logx.Warn().Err(err).Msg("moderation prompt failed, using rules")
		return RuleBased(text)
	}

	out := d.gen.Generate(ctx, gateway.Request{
		Prompt:       p,
		Temperature:  d.temperature,
		FallbackText: text,
	})
	if out.IsFallback() {
		logx.Debug().Str("reason", string(out.Reason)).Msg("moderation model unavailable, using rules")
		return RuleBased(text)
	}

	verdict, err := parsers.ParseModerationVerdict(out.Text)
	if err != nil {
		logx.Warn().Err(err).Str("source", string(out.Kind)).Msg("unusable moderation verdict, using rules")
		return RuleBased(text)
	}
	return *verdict
}

// RuleBased blocks text containing any toxic keyword.
func RuleBased(text string) model.ModerationResult {
	lower := strings.ToLower(text)
	var flagged []string
	for _, kw := range ToxicKeywords {
		if strings.Contains(lower, kw) {
			flagged = append(flagged, kw)
		}
	}
	if len(flagged) > 0 {
		return model.ModerationResult{
			Decision:       model.DecisionBlock,
			Confidence:     ruleConfidence,
			Reason:         reasonFlagged,
			Method:         model.MethodRuleBased,
			FlaggedContent: flagged,
		}
	}
	return model.ModerationResult{
		Decision:   model.DecisionAllow,
		Confidence: ruleConfidence,
		Reason:     reasonClean,
		Method:     model.MethodRuleBased,
	}
}
