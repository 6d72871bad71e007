// Package llm adapts an eino chat model into the single text-generation
// capability the gateway consumes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/manmitra-core/server/internal/agent/model"
	logx "github.com/manmitra-core/server/pkg/logger"
)

// Generator produces text for a prompt. Errors carry the provider message so
// callers can classify throttling by inspecting the text.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

// ErrEmptyResponse is returned when the model answered without content.
var ErrEmptyResponse = errors.New("model returned empty response")

// GenerationParams are fixed for every call; only temperature varies.
type GenerationParams struct {
	MaxTokens int
	TopP      float32
}

// ChatGenerator sends a prompt as a single user message to a chat model.
type ChatGenerator struct {
	chatModel einomodel.BaseChatModel
	modelName string
	params    GenerationParams
}

func NewChatGenerator(cm einomodel.BaseChatModel, modelName string, params GenerationParams) *ChatGenerator {
	return &ChatGenerator{chatModel: cm, modelName: modelName, params: params}
}

func (g *ChatGenerator) ModelName() string { return g.modelName }

func (g *ChatGenerator) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	opts := []einomodel.Option{einomodel.WithTemperature(temperature)}
	if g.params.MaxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(g.params.MaxTokens))
	}
	if g.params.TopP > 0 {
		opts = append(opts, einomodel.WithTopP(g.params.TopP))
	}

	out, err := g.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, opts...)
	if err != nil {
		return "", fmt.Errorf("chat model %s: %w", g.modelName, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", ErrEmptyResponse
	}

	g.logUsage(out)
	return out.Content, nil
}

func (g *ChatGenerator) logUsage(out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(g.modelName))
	logx.Debug().
		Str("model", g.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}
