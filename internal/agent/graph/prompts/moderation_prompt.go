package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/moderation_prompt.txt
var moderationPrompt string

// RenderModeration renders the forum-post classification prompt.
func RenderModeration(ctx context.Context, text string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(moderationPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{"Text": text})
	if err != nil {
		return "", fmt.Errorf("moderation prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("moderation prompt render: empty result")
	}
	return msgs[0].Content, nil
}
