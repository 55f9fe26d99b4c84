// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	LogLevel        slog.Level
	LLM             LLMConfig
	Profile         ProfileConfig
	Engine          EngineConfig
	Transport       TransportConfig
	PricingCacheTTL time.Duration
	GRPCHealthAddr  string // empty disables the gRPC health service
	ConversationLog ConversationLogConfig
}

// LLMConfig selects and authenticates the completion provider.
type LLMConfig struct {
	Provider        string // openai, anthropic or offline
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	RequesterModel  string
	ProviderModel   string
}

// ProfileConfig locates the user profile.
type ProfileConfig struct {
	Backend string // file or sqlite
	Path    string
	DBPath  string
}

// EngineConfig tunes the orchestration engine.
type EngineConfig struct {
	SuppressionWindow time.Duration
	StepInterval      time.Duration
	LeadInDelay       time.Duration
	SettleDelay       time.Duration
	FollowUpDelay     time.Duration
	AgentTimeout      time.Duration
	MinDetailLength   int
	HistoryWindow     int
	MaxRenegotiations int // 0 = unbounded
}

// TransportConfig bounds inbound websocket traffic.
type TransportConfig struct {
	RateLimitMessages int
	RateLimitWindow   time.Duration
	SessionQueueSize  int
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		LogLevel:    getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			RequesterModel:  getEnv("PERSONAL_BOT_MODEL", "gpt-4o-mini"),
			ProviderModel:   getEnv("TATA_AIG_BOT_MODEL", "gpt-4o-mini"),
		},
		Profile: ProfileConfig{
			Backend: strings.ToLower(getEnv("PROFILE_BACKEND", "file")),
			Path:    getEnv("PROFILE_PATH", "./user-profile.json"),
			DBPath:  getEnv("DB_PATH", "./data/profile.db"),
		},
		Engine: EngineConfig{
			SuppressionWindow: getEnvDuration("SUPPRESSION_WINDOW", 5*time.Minute),
			StepInterval:      getEnvDuration("STEP_INTERVAL", 800*time.Millisecond),
			LeadInDelay:       getEnvDuration("LEAD_IN_DELAY", 2*time.Second),
			SettleDelay:       getEnvDuration("SETTLE_DELAY", 500*time.Millisecond),
			FollowUpDelay:     getEnvDuration("FOLLOW_UP_DELAY", 2*time.Second),
			AgentTimeout:      getEnvDuration("AGENT_TIMEOUT", 20*time.Second),
			MinDetailLength:   getEnvInt("MIN_DETAIL_LENGTH", 30),
			HistoryWindow:     getEnvInt("HISTORY_WINDOW", 10),
			MaxRenegotiations: getEnvInt("MAX_RENEGOTIATIONS", 3),
		},
		Transport: TransportConfig{
			RateLimitMessages: getEnvInt("RATE_LIMIT_MESSAGES", 20),
			RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			SessionQueueSize:  getEnvInt("SESSION_QUEUE_SIZE", 32),
		},
		PricingCacheTTL: getEnvDuration("PRICING_CACHE_TTL", time.Hour),
		GRPCHealthAddr:  getEnv("GRPC_HEALTH_ADDR", ""),
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", false),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case "offline":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	switch c.Profile.Backend {
	case "file":
		if c.Profile.Path == "" {
			return fmt.Errorf("PROFILE_PATH cannot be empty")
		}
	case "sqlite":
		if c.Profile.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	default:
		return fmt.Errorf("unknown PROFILE_BACKEND %q", c.Profile.Backend)
	}
	if c.Engine.AgentTimeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT must be > 0")
	}
	if c.Engine.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be > 0")
	}
	if c.Engine.MaxRenegotiations < 0 {
		return fmt.Errorf("MAX_RENEGOTIATIONS must be >= 0")
	}
	if c.Transport.RateLimitMessages <= 0 || c.Transport.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MESSAGES and RATE_LIMIT_WINDOW must be > 0")
	}
	if c.Transport.SessionQueueSize <= 0 {
		return fmt.Errorf("SESSION_QUEUE_SIZE must be > 0")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the HTTP surface.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("800ms", "5m") or bare milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
