package main

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/manmitra-core/server/internal/agent/model"
	logx "github.com/manmitra-core/server/pkg/logger"
	pkgredis "github.com/manmitra-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Server model.ServerConfig

	// Infrastructure
	Redis pkgredis.Config
	Audit model.AuditConfig

	// LLM provider
	Gemini model.GeminiConfig

	// Pipeline
	Gateway      model.GatewayConfig
	Safety       model.SafetyConfig
	Conversation model.ConversationConfig
	Alerts       model.AlertConfig
}

// loadConfig reads envFile when present, then the process environment.
func loadConfig(envFile string) (AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logx.Debug().Err(err).Str("file", envFile).Msg("env file not loaded")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
