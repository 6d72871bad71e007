package model

import "time"

// ================ Config ================
type GatewayConfig struct {
	RequestsPerMinute int           `envconfig:"GATEWAY_REQUESTS_PER_MINUTE" default:"10"`
	DailyTokenLimit   int           `envconfig:"GATEWAY_DAILY_TOKEN_LIMIT" default:"50000"`
	CacheTTL          time.Duration `envconfig:"GATEWAY_CACHE_TTL" default:"1h"`
	CacheCapacity     int           `envconfig:"GATEWAY_CACHE_CAPACITY" default:"100"`
	BackoffBase       time.Duration `envconfig:"GATEWAY_BACKOFF_BASE" default:"30s"`
	BackoffCap        time.Duration `envconfig:"GATEWAY_BACKOFF_CAP" default:"10m"`
	ModelTimeout      time.Duration `envconfig:"GATEWAY_MODEL_TIMEOUT" default:"20s"`
	Workers           int           `envconfig:"GATEWAY_WORKERS" default:"8"`
}

// DefaultGatewayConfig mirrors the envconfig defaults for callers that build
// a gateway without going through the environment.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		RequestsPerMinute: 10,
		DailyTokenLimit:   50000,
		CacheTTL:          time.Hour,
		CacheCapacity:     100,
		BackoffBase:       30 * time.Second,
		BackoffCap:        10 * time.Minute,
		ModelTimeout:      20 * time.Second,
		Workers:           8,
	}
}

type SafetyConfig struct {
	CrisisKeywords   []string `envconfig:"CRISIS_KEYWORDS" default:"suicide,kill myself,end it,don't want to live,self harm,hurt myself,die,death,dead,not worth living,better off dead,end my life"`
	MaxMessageLength int      `envconfig:"MAX_MESSAGE_LENGTH" default:"2000"`
	RulesFile        string   `envconfig:"SAFETY_RULES_FILE"`
}

type GeminiConfig struct {
	APIKey    string  `envconfig:"GEMINI_API_KEY"`
	BaseURL   string  `envconfig:"GEMINI_BASE_URL"`
	Model     string  `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-exp"`
	MaxTokens int     `envconfig:"GEMINI_MAX_TOKENS" default:"400"`
	TopP      float32 `envconfig:"GEMINI_TOP_P" default:"0.8"`
	TopK      int32   `envconfig:"GEMINI_TOP_K" default:"40"`
}

type ConversationConfig struct {
	ChatTemperature   float32 `envconfig:"CHAT_TEMPERATURE" default:"0.7"`
	SafetyTemperature float32 `envconfig:"SAFETY_TEMPERATURE" default:"0.2"`
	HistoryTurns      int     `envconfig:"CONVERSATION_HISTORY_TURNS" default:"3"`
}

type AlertConfig struct {
	TTL time.Duration `envconfig:"CRISIS_ALERT_TTL" default:"72h"`
}

// AuditConfig enables the SQLite safety audit log when DBPath is set.
type AuditConfig struct {
	DBPath        string `envconfig:"AUDIT_DB_PATH"`
	RetentionDays int    `envconfig:"AUDIT_RETENTION_DAYS" default:"90"`
}

type ServerConfig struct {
	Addr        string `envconfig:"SERVER_ADDR" default:":8000"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
}
