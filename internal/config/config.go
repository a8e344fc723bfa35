package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Provider  ProviderConfig  `yaml:"provider"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

type ProviderConfig struct {
	Anthropic *AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI    *OpenAIConfig    `yaml:"openai,omitempty"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model,omitempty"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model,omitempty"`
}

type GatewayConfig struct {
	DefaultProvider string `yaml:"default_provider,omitempty"`
	MaxRetries      int    `yaml:"max_retries,omitempty"`
	RetryDelay      string `yaml:"retry_delay,omitempty"`
	Timeout         string `yaml:"timeout,omitempty"`
}

type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	TokenExpiry string `yaml:"token_expiry,omitempty"`
}

type SchedulerConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TickInterval  string `yaml:"tick_interval,omitempty"`
	MaxConcurrent int    `yaml:"max_concurrent,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		key := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return match
	})
}

// StrideHome returns the data directory, ~/.stride unless overridden
// with STRIDE_HOME.
func StrideHome() string {
	if h := os.Getenv("STRIDE_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".stride")
	}
	return filepath.Join(home, ".stride")
}

func DefaultConfigPath() string {
	return filepath.Join(StrideHome(), "config.yaml")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	data = []byte(expandEnvVars(string(data)))

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(StrideHome(), "stride.db")
	}
	if cfg.Gateway.DefaultProvider == "" {
		cfg.Gateway.DefaultProvider = "anthropic"
	}
	if cfg.Gateway.MaxRetries == 0 {
		cfg.Gateway.MaxRetries = 3
	}
	if cfg.Gateway.RetryDelay == "" {
		cfg.Gateway.RetryDelay = "1s"
	}
	if cfg.Gateway.Timeout == "" {
		cfg.Gateway.Timeout = "60s"
	}
	if cfg.Auth.TokenExpiry == "" {
		cfg.Auth.TokenExpiry = "720h"
	}
	if cfg.Scheduler.TickInterval == "" {
		cfg.Scheduler.TickInterval = "60s"
	}
	if cfg.Scheduler.MaxConcurrent == 0 {
		cfg.Scheduler.MaxConcurrent = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if c := cfg.Provider.Anthropic; c != nil && c.Model == "" {
		c.Model = "claude-3-5-sonnet-20241022"
	}
	if c := cfg.Provider.OpenAI; c != nil && c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
}

func validate(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q (must be debug/info/warn/error)", cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be text/json)", cfg.Log.Format)
	}

	switch cfg.Gateway.DefaultProvider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("invalid default provider %q (must be anthropic/openai)", cfg.Gateway.DefaultProvider)
	}

	durations := map[string]string{
		"gateway.retry_delay":     cfg.Gateway.RetryDelay,
		"gateway.timeout":         cfg.Gateway.Timeout,
		"auth.token_expiry":       cfg.Auth.TokenExpiry,
		"scheduler.tick_interval": cfg.Scheduler.TickInterval,
	}
	for name, val := range durations {
		if val != "" {
			if _, err := time.ParseDuration(val); err != nil {
				return fmt.Errorf("invalid duration for %s: %q (%v)", name, val, err)
			}
		}
	}

	// Unexpanded env vars in secrets mean the variable was not set.
	if c := cfg.Provider.Anthropic; c != nil && strings.HasPrefix(c.APIKey, "${") {
		return fmt.Errorf("anthropic api_key contains unexpanded env var: %s", c.APIKey)
	}
	if c := cfg.Provider.OpenAI; c != nil && strings.HasPrefix(c.APIKey, "${") {
		return fmt.Errorf("openai api_key contains unexpanded env var: %s", c.APIKey)
	}
	if strings.HasPrefix(cfg.Auth.JWTSecret, "${") {
		return fmt.Errorf("auth jwt_secret contains unexpanded env var: %s", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret must be set")
	}

	return nil
}

// Duration parses a duration field that already passed validation.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// HasProvider reports whether at least one provider has credentials.
func HasProvider(cfg *Config) bool {
	if c := cfg.Provider.Anthropic; c != nil && c.APIKey != "" && !strings.HasPrefix(c.APIKey, "${") {
		return true
	}
	if c := cfg.Provider.OpenAI; c != nil && c.APIKey != "" && !strings.HasPrefix(c.APIKey, "${") {
		return true
	}
	return false
}
