package conversations

import (
	"strings"

	"github.com/manmitra-core/server/internal/agent/model"
)

const DefaultHistoryTurns = 3

// ContextBuilder turns caller-supplied history into the prompt's
// conversation context block.
type ContextBuilder struct {
	maxTurns int
}

func NewContextBuilder(config model.ConversationConfig) *ContextBuilder {
	turns := config.HistoryTurns
	if turns <= 0 {
		turns = DefaultHistoryTurns
	}
	return &ContextBuilder{maxTurns: turns}
}

// Lines returns the optional "Topic:" line followed by the most recent
// history turns rendered as "role: content". It is empty when there is
// neither a topic nor history.
func (cb *ContextBuilder) Lines(topic string, history []model.HistoryMessage) []string {
	var lines []string
	if t := strings.TrimSpace(topic); t != "" {
		lines = append(lines, "Topic: "+t)
	}
	if len(history) == 0 {
		return lines
	}

	lines = append(lines, "Recent conversation:")
	for _, msg := range trimTail(history, cb.maxTurns) {
		role := strings.TrimSpace(msg.Role)
		if role == "" {
			role = "user"
		}
		lines = append(lines, role+": "+msg.Content)
	}
	return lines
}

func trimTail(messages []model.HistoryMessage, maxTurns int) []model.HistoryMessage {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
