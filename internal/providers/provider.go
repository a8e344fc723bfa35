package providers

import "context"

// GenerateRequest is a single text-generation call. UserKeys, when set,
// override the process-wide credentials for this call only.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	UserKeys     Credentials
}

// Credentials are per-user provider API keys. Empty fields fall back
// to the process-wide defaults.
type Credentials struct {
	AnthropicKey string
	OpenAIKey    string
}

type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Name() string
	Available() bool
}
