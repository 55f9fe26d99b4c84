package llm

import (
	"fmt"
	"strings"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOffline   = "offline"
)

// Config selects and configures a completion provider.
type Config struct {
	Provider        string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	MaxRetries      int
}

// New builds the configured Completer.
func New(cfg Config) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI, "":
		var opts []openaioption.RequestOption
		if cfg.OpenAIAPIKey != "" {
			opts = append(opts, openaioption.WithAPIKey(cfg.OpenAIAPIKey))
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openaioption.WithBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.MaxRetries >= 0 {
			opts = append(opts, openaioption.WithMaxRetries(cfg.MaxRetries))
		}
		return NewOpenAI(opts...), nil
	case ProviderAnthropic:
		var opts []anthropicoption.RequestOption
		if cfg.AnthropicAPIKey != "" {
			opts = append(opts, anthropicoption.WithAPIKey(cfg.AnthropicAPIKey))
		}
		if cfg.MaxRetries >= 0 {
			opts = append(opts, anthropicoption.WithMaxRetries(cfg.MaxRetries))
		}
		return NewAnthropic(opts...), nil
	case ProviderOffline:
		return Offline{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
