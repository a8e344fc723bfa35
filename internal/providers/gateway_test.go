package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"
)

type mockProvider struct {
	name  string
	text  string
	errs  []error // consumed one per call; nil slot means success
	calls int
	down  bool
}

func (m *mockProvider) Name() string    { return m.name }
func (m *mockProvider) Available() bool { return !m.down }

func (m *mockProvider) Generate(_ context.Context, _ GenerateRequest) (string, error) {
	call := m.calls
	m.calls++
	if call < len(m.errs) && m.errs[call] != nil {
		return "", m.errs[call]
	}
	return m.text, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testGateway wires mocks in for anthropic/openai and makes retry
// sleeps instant.
func testGateway(cfg Config, mocks map[string]*mockProvider) *Gateway {
	g := NewGateway(cfg, testLogger())
	g.sleep = func(context.Context, time.Duration) error { return nil }
	g.build = func(name, _ string) Provider { return mocks[name] }
	return g
}

var errRateLimit = fmt.Errorf("API error (status 429): rate limit exceeded")
var errOverloaded = fmt.Errorf("API error (status 529): overloaded")
var errUnavailable = fmt.Errorf("API error (status 503): service unavailable")
var errBoom = fmt.Errorf("API error (status 500): internal server error")

func TestGatewayNoProviders(t *testing.T) {
	g := testGateway(Config{DefaultProvider: "anthropic"}, nil)
	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != ErrNoProvider {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestGatewaySingleProviderSuccess(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", text: "hello"}
	g := testGateway(Config{DefaultProvider: "anthropic", AnthropicKey: "k"},
		map[string]*mockProvider{"anthropic": anthropic})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected 'hello', got %q", text)
	}
}

func TestGatewayFailoverOnRateLimit(t *testing.T) {
	// Anthropic stays rate limited through every retry; openai succeeds.
	anthropic := &mockProvider{name: "anthropic", errs: []error{errRateLimit, errRateLimit, errRateLimit, errRateLimit}}
	openai := &mockProvider{name: "openai", text: "from openai"}
	g := testGateway(
		Config{DefaultProvider: "anthropic", MaxRetries: 3, AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("rate limit should not surface when fallback succeeds: %v", err)
	}
	if text != "from openai" {
		t.Errorf("expected fallback text, got %q", text)
	}
	if anthropic.calls != 4 {
		t.Errorf("expected 4 anthropic attempts (1 + 3 retries), got %d", anthropic.calls)
	}
}

func TestGatewayIntraCallRetrySucceeds(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", text: "eventually", errs: []error{errRateLimit, errRateLimit}}
	openai := &mockProvider{name: "openai", text: "unused"}
	g := testGateway(
		Config{DefaultProvider: "anthropic", MaxRetries: 3, AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "eventually" {
		t.Errorf("expected retry to succeed on primary, got %q", text)
	}
	if openai.calls != 0 {
		t.Error("secondary should not be called when primary recovers")
	}
}

func TestGatewayUnavailableRetriedOnSameProvider(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", text: "recovered", errs: []error{errUnavailable, errUnavailable}}
	openai := &mockProvider{name: "openai", text: "unused"}
	g := testGateway(
		Config{DefaultProvider: "anthropic", MaxRetries: 3, AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recovered" {
		t.Errorf("expected primary to recover after 503s, got %q", text)
	}
	if anthropic.calls != 3 {
		t.Errorf("expected 3 anthropic attempts, got %d", anthropic.calls)
	}
	if openai.calls != 0 {
		t.Error("secondary should not be called when primary recovers")
	}
}

func TestGatewaySkipsUnavailableProvider(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", text: "never", down: true}
	openai := &mockProvider{name: "openai", text: "backup"}
	g := testGateway(
		Config{DefaultProvider: "anthropic", AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "backup" {
		t.Errorf("expected backup text, got %q", text)
	}
	if anthropic.calls != 0 {
		t.Errorf("unavailable provider should never be called, got %d calls", anthropic.calls)
	}
}

func TestGatewayOverloadFailsOverWithoutRetry(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", errs: []error{errOverloaded}}
	openai := &mockProvider{name: "openai", text: "backup"}
	g := testGateway(
		Config{DefaultProvider: "anthropic", MaxRetries: 3, AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "backup" {
		t.Errorf("expected backup text, got %q", text)
	}
	if anthropic.calls != 1 {
		t.Errorf("overload should not be retried on the same provider, got %d calls", anthropic.calls)
	}
}

func TestGatewayGenericErrorStillFailsOver(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", errs: []error{errBoom}}
	openai := &mockProvider{name: "openai", text: "backup"}
	g := testGateway(
		Config{DefaultProvider: "anthropic", AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "backup" {
		t.Errorf("expected backup text, got %q", text)
	}
}

func TestGatewayExhaustion(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", errs: []error{errBoom}}
	openai := &mockProvider{name: "openai", errs: []error{errBoom}}
	g := testGateway(
		Config{DefaultProvider: "anthropic", AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error when both providers fail")
	}
	if text != "" {
		t.Errorf("no text expected on exhaustion, got %q", text)
	}
}

func TestGatewayEmptyResponseMovesOn(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", text: ""}
	openai := &mockProvider{name: "openai", text: "real"}
	g := testGateway(
		Config{DefaultProvider: "anthropic", AnthropicKey: "a", OpenAIKey: "o"},
		map[string]*mockProvider{"anthropic": anthropic, "openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "real" {
		t.Errorf("expected secondary text after empty primary, got %q", text)
	}
}

func TestGatewayDefaultProviderOrder(t *testing.T) {
	anthropic := &mockProvider{name: "anthropic", text: "anthropic wins"}
	openai := &mockProvider{name: "openai", text: "openai wins"}
	mocks := map[string]*mockProvider{"anthropic": anthropic, "openai": openai}

	g := testGateway(Config{DefaultProvider: "openai", AnthropicKey: "a", OpenAIKey: "o"}, mocks)
	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "openai wins" {
		t.Errorf("expected openai to be tried first, got %q", text)
	}
	if anthropic.calls != 0 {
		t.Error("non-default provider should not be called on success")
	}
}

func TestGatewayPerUserKeyUnlocksProvider(t *testing.T) {
	openai := &mockProvider{name: "openai", text: "user key worked"}
	// No process-wide keys at all; the user brings their own.
	g := testGateway(Config{DefaultProvider: "openai"},
		map[string]*mockProvider{"openai": openai})

	text, err := g.Generate(context.Background(), GenerateRequest{
		Prompt:   "hi",
		UserKeys: Credentials{OpenAIKey: "user-key"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "user key worked" {
		t.Errorf("expected user-key provider to serve, got %q", text)
	}
}
