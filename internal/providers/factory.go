package providers

import (
	"log/slog"
	"time"

	"github.com/strideapp/stride/internal/config"
)

// FromConfig builds the gateway from application configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Gateway {
	gc := Config{
		DefaultProvider: cfg.Gateway.DefaultProvider,
		MaxRetries:      cfg.Gateway.MaxRetries,
		RetryDelay:      config.Duration(cfg.Gateway.RetryDelay, time.Second),
		Timeout:         config.Duration(cfg.Gateway.Timeout, 60*time.Second),
	}

	if c := cfg.Provider.Anthropic; c != nil {
		gc.AnthropicKey = c.APIKey
		gc.AnthropicModel = c.Model
		if c.APIKey != "" {
			logger.Info("provider configured", "name", "anthropic", "model", c.Model)
		}
	}
	if c := cfg.Provider.OpenAI; c != nil {
		gc.OpenAIKey = c.APIKey
		gc.OpenAIModel = c.Model
		if c.APIKey != "" {
			logger.Info("provider configured", "name", "openai", "model", c.Model)
		}
	}

	if !config.HasProvider(cfg) {
		logger.Warn("no provider credentials configured; generation requires per-user keys")
	}

	return NewGateway(gc, logger)
}
