package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/manmitra-core/server/internal/agent/model"
	logx "github.com/manmitra-core/server/pkg/logger"
)

// ErrNoAPIKey is returned by NewGemini when no key is configured.
var ErrNoAPIKey = errors.New("gemini api key not configured")

// NewGemini builds a ChatGenerator backed by the Gemini API.
func NewGemini(ctx context.Context, cfg model.GeminiConfig) (*ChatGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	maxTokens := cfg.MaxTokens
	topP := cfg.TopP
	topK := cfg.TopK
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:    client,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
		TopP:      &topP,
		TopK:      &topK,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}

	logx.Info().Str("model", cfg.Model).Msg("Gemini model initialized")
	return NewChatGenerator(cm, cfg.Model, GenerationParams{MaxTokens: maxTokens, TopP: topP}), nil
}
