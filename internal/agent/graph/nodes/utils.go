package nodes

import (
	"strings"

	"github.com/manmitra-core/server/internal/agent/model"
)

const replyPrefix = "Bestie:"

// cleanReply trims the reply and drops a leading "Bestie:" the model may echo.
func cleanReply(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, replyPrefix) {
		text = strings.TrimSpace(text[len(replyPrefix):])
	}
	if text == "" {
		return model.SupportMessage
	}
	return text
}

func crisisMetadata(c model.CrisisResult) map[string]any {
	patterns := c.MatchedPatterns
	if patterns == nil {
		patterns = []string{}
	}
	return map[string]any{
		"severity":                     string(c.Severity),
		"matched_patterns":             patterns,
		"requires_immediate_attention": c.Severity.RequiresImmediateAttention(),
	}
}
