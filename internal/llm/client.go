package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("llm provider unavailable")

// Request is a single completion request.
type Request struct {
	System string
	Prompt string
	Tier   ModelTier
	// JSON asks the provider for a JSON-only response.
	JSON bool
}

// Completer is the text completion capability consumed by the survey and
// analysis code.
type Completer interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Client is an abstraction over LLM providers
type Client interface {
	Completer
	// GetModel returns the provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration. An empty API
// key or ProviderNone yields the Unavailable client.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Provider == ProviderNone || apiKey == "" {
		return Unavailable{}, nil
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}

// Unavailable is the client used when no provider is configured. Every
// call fails with ErrUnavailable so callers take their deterministic path.
type Unavailable struct{}

// Generate always returns ErrUnavailable.
func (Unavailable) Generate(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}

// GetModel returns an empty model name.
func (Unavailable) GetModel(ModelTier) string { return "" }

// Close is a no-op.
func (Unavailable) Close() error { return nil }

// IsUnavailable reports whether err means no provider was configured.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
