package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/chat_prompt.txt
var chatPrompt string

// RenderChat renders the Bestie persona prompt. contextLines is the optional
// topic and history block; it is omitted entirely when empty.
func RenderChat(ctx context.Context, contextLines []string, message string) (string, error) {
	// Render via Eino prompt component (Go template) to both format and emit callbacks
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(chatPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Context": contextLines,
		"Message": message,
	})
	if err != nil {
		return "", fmt.Errorf("chat prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("chat prompt render: empty result")
	}
	return msgs[0].Content, nil
}
