package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manmitra-core/server/internal/agent/model"
)

func TestParseModerationVerdict(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		decision   model.Decision
		confidence float64
		reason     string
	}{
		{
			name:       "plain object",
			content:    `{"decision": "block", "confidence": 0.93, "reason": "harassment"}`,
			decision:   model.DecisionBlock,
			confidence: 0.93,
			reason:     "harassment",
		},
		{
			name:       "fenced json",
			content:    "```json\n{\"decision\":\"allow\",\"confidence\":0.7,\"reason\":\"supportive\"}\n```",
			decision:   model.DecisionAllow,
			confidence: 0.7,
			reason:     "supportive",
		},
		{
			name:       "string confidence and mixed case decision",
			content:    `{"decision": "Allow", "confidence": "0.4", "reason": " fine "}`,
			decision:   model.DecisionAllow,
			confidence: 0.4,
			reason:     "fine",
		},
		{
			name:       "confidence clamped",
			content:    `{"decision": "block", "confidence": 7, "reason": "threat"}`,
			decision:   model.DecisionBlock,
			confidence: 1,
			reason:     "threat",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ParseModerationVerdict(tc.content)
			require.NoError(t, err)
			assert.Equal(t, tc.decision, res.Decision)
			assert.InDelta(t, tc.confidence, res.Confidence, 1e-9)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, model.MethodModel, res.Method)
		})
	}
}

func TestParseModerationVerdictRejects(t *testing.T) {
	tests := map[string]string{
		"prose":              "I think this post is fine.",
		"truncated":          `{"decision": "block", "confidence": 0.9`,
		"missing decision":   `{"confidence": 0.9, "reason": "x"}`,
		"unknown decision":   `{"decision": "maybe", "confidence": 0.9, "reason": "x"}`,
		"missing confidence": `{"decision": "allow", "reason": "x"}`,
		"bad confidence":     `{"decision": "allow", "confidence": "high", "reason": "x"}`,
		"empty reason":       `{"decision": "allow", "confidence": 0.5, "reason": "  "}`,
		"oversized":          `{"decision": "allow", "confidence": 0.5, "reason": "` + strings.Repeat("a", maxContentLen) + `"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseModerationVerdict(content)
			assert.ErrorIs(t, err, ErrMalformedVerdict)
		})
	}
}

func TestParseModerationVerdictTruncatesReason(t *testing.T) {
	res, err := ParseModerationVerdict(`{"decision": "allow", "confidence": 0.5, "reason": "` + strings.Repeat("r", 800) + `"}`)
	require.NoError(t, err)
	assert.Len(t, res.Reason, maxReasonLen)
}
