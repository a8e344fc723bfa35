package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `
provider:
  anthropic:
    api_key: "sk-test-key-1234567890"
auth:
  jwt_secret: "test-secret"
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load valid config: %v", err)
	}
	if cfg.Provider.Anthropic == nil || cfg.Provider.Anthropic.APIKey != "sk-test-key-1234567890" {
		t.Error("expected anthropic provider with api key")
	}
	if cfg.Provider.Anthropic.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("expected default anthropic model, got %s", cfg.Provider.Anthropic.Model)
	}
}

func TestEnvVarExpansion(t *testing.T) {
	os.Setenv("TEST_STRIDE_KEY", "my-secret-key")
	defer os.Unsetenv("TEST_STRIDE_KEY")

	result := expandEnvVars("key: ${TEST_STRIDE_KEY}")
	if result != "key: my-secret-key" {
		t.Errorf("expected expansion, got: %s", result)
	}
}

func TestEnvVarNoExpansion(t *testing.T) {
	result := expandEnvVars("key: ${NONEXISTENT_VAR}")
	if result != "key: ${NONEXISTENT_VAR}" {
		t.Errorf("expected no expansion, got: %s", result)
	}
}

func TestUnexpandedSecretRejected(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `
provider:
  openai:
    api_key: "${OPENAI_KEY_THAT_IS_NOT_SET}"
auth:
  jwt_secret: "test-secret"
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	_, err := Load(cfgPath)
	if err == nil {
		t.Error("expected validation error for unexpanded api key")
	}
}

func TestMissingJWTSecretRejected(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	os.WriteFile(cfgPath, []byte("log:\n  level: info\n"), 0644)

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("expected validation error for missing jwt secret")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("error should name jwt_secret, got: %v", err)
	}
}

func TestHasProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"no providers", Config{}, false},
		{"anthropic key", Config{Provider: ProviderConfig{Anthropic: &AnthropicConfig{APIKey: "sk-ant"}}}, true},
		{"openai key", Config{Provider: ProviderConfig{OpenAI: &OpenAIConfig{APIKey: "sk-oai"}}}, true},
		{"empty keys", Config{Provider: ProviderConfig{Anthropic: &AnthropicConfig{}, OpenAI: &OpenAIConfig{}}}, false},
		{"unexpanded key", Config{Provider: ProviderConfig{Anthropic: &AnthropicConfig{APIKey: "${ANTHROPIC_API_KEY}"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasProvider(&tt.cfg); got != tt.want {
				t.Errorf("HasProvider = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	os.WriteFile(cfgPath, []byte("auth:\n  jwt_secret: test-secret\n"), 0644)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.Gateway.DefaultProvider != "anthropic" {
		t.Errorf("expected default provider anthropic, got %s", cfg.Gateway.DefaultProvider)
	}
	if cfg.Gateway.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Gateway.MaxRetries)
	}
	if cfg.Gateway.RetryDelay != "1s" {
		t.Errorf("expected default retry delay 1s, got %s", cfg.Gateway.RetryDelay)
	}
	if cfg.Scheduler.MaxConcurrent != 3 {
		t.Errorf("expected default max concurrent 3, got %d", cfg.Scheduler.MaxConcurrent)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr :8080, got %s", cfg.Server.ListenAddr)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	os.WriteFile(cfgPath, []byte("log:\n  level: loud\nauth:\n  jwt_secret: test-secret\n"), 0644)

	if _, err := Load(cfgPath); err == nil {
		t.Error("expected validation error for bad log level")
	}
}

func TestInvalidDefaultProvider(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	os.WriteFile(cfgPath, []byte("gateway:\n  default_provider: cohere\nauth:\n  jwt_secret: test-secret\n"), 0644)

	if _, err := Load(cfgPath); err == nil {
		t.Error("expected validation error for unknown default provider")
	}
}

func TestDuration(t *testing.T) {
	if d := Duration("5s", time.Minute); d != 5*time.Second {
		t.Errorf("expected 5s, got %v", d)
	}
	if d := Duration("", time.Minute); d != time.Minute {
		t.Errorf("expected fallback, got %v", d)
	}
	if d := Duration("garbage", time.Minute); d != time.Minute {
		t.Errorf("expected fallback on parse error, got %v", d)
	}
}
