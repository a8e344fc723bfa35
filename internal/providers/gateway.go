package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrNoProvider is returned when no provider has usable credentials.
	ErrNoProvider = errors.New("no provider available")

	// ErrUnavailable wraps the last provider error once every
	// candidate has been exhausted.
	ErrUnavailable = errors.New("all providers unavailable")
)

// Config is the fixed gateway configuration. It is read-only after
// construction; per-user credential overrides arrive with each request.
type Config struct {
	DefaultProvider string // "anthropic" or "openai"
	MaxRetries      int
	RetryDelay      time.Duration
	Timeout         time.Duration
	AnthropicKey    string
	AnthropicModel  string
	OpenAIKey       string
	OpenAIModel     string
}

// Gateway routes generation requests to the configured providers with
// rate-limit retry and failover. It holds no mutable state across
// invocations.
type Gateway struct {
	cfg    Config
	logger *slog.Logger

	// overridable in tests
	sleep func(ctx context.Context, d time.Duration) error
	build func(name, apiKey string) Provider
}

func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	g := &Gateway{cfg: cfg, logger: logger, sleep: sleepCtx}
	g.build = func(name, apiKey string) Provider {
		if name == "openai" {
			return NewOpenAI(apiKey, cfg.OpenAIModel, cfg.Timeout)
		}
		return NewAnthropic(apiKey, cfg.AnthropicModel, cfg.Timeout)
	}
	return g
}

// Generate tries each candidate provider in order: the default first,
// then the other when both have credentials. A rate-limit signal is
// retried against the same provider with linear backoff before failing
// over; any other error fails over immediately. The last recorded
// error surfaces only once every candidate is exhausted.
func (g *Gateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	candidates := g.candidates(req.UserKeys)
	if len(candidates) == 0 {
		return "", ErrNoProvider
	}

	var lastErr error
	for _, provider := range candidates {
		name := provider.Name()
		g.logger.Info("attempting generation", "provider", name)

		text, err := g.generateWithRetry(ctx, provider, req)
		if err == nil {
			if text != "" {
				return text, nil
			}
			lastErr = fmt.Errorf("%s returned an empty response", name)
			continue
		}

		reason := ClassifyError(err)
		if reason.RateLimited() {
			g.logger.Warn("provider rate limited", "provider", name, "reason", reason.String(), "error", err)
			lastErr = err
			continue
		}

		g.logger.Error("provider failed", "provider", name, "reason", reason.String(), "error", err)
		lastErr = fmt.Errorf("%s error: %w", name, err)
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return "", ErrNoProvider
}

// generateWithRetry is the intra-call retry loop: up to MaxRetries
// extra attempts on a rate limit or a plain 503, sleeping
// RetryDelay * attempt between them. Every other failure is handed
// back to the failover loop untouched.
func (g *Gateway) generateWithRetry(ctx context.Context, provider Provider, req GenerateRequest) (string, error) {
	attempt := 0
	for {
		text, err := provider.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if !ClassifyError(err).Retryable() || attempt >= g.cfg.MaxRetries {
			return "", err
		}
		attempt++
		g.logger.Debug("retrying after rate limit",
			"provider", provider.Name(), "attempt", attempt)
		if sleepErr := g.sleep(ctx, time.Duration(attempt)*g.cfg.RetryDelay); sleepErr != nil {
			return "", sleepErr
		}
	}
}

// candidates resolves credentials (per-user key first, process default
// second) and returns the ordered providers to try.
func (g *Gateway) candidates(userKeys Credentials) []Provider {
	order := []string{"anthropic", "openai"}
	if g.cfg.DefaultProvider == "openai" {
		order = []string{"openai", "anthropic"}
	}

	var out []Provider
	for _, name := range order {
		key := g.resolveKey(name, userKeys)
		if key == "" {
			continue
		}
		p := g.build(name, key)
		if !p.Available() {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (g *Gateway) resolveKey(name string, userKeys Credentials) string {
	switch name {
	case "anthropic":
		if userKeys.AnthropicKey != "" {
			return userKeys.AnthropicKey
		}
		return g.cfg.AnthropicKey
	case "openai":
		if userKeys.OpenAIKey != "" {
			return userKeys.OpenAIKey
		}
		return g.cfg.OpenAIKey
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
