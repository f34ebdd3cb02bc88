// Package llm provides the text completion capability used for follow-up
// questions, help tips and expert analysis, with Gemini and Anthropic providers.
package llm

import (
	"fmt"
	"maps"
	"strings"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short generations: help tips, single follow-up questions
	TierLite ModelTier = "lite"
	// TierStandard is for follow-up lists and discrepancy checks
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form expert analysis and functional specifications
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderAnthropic is the Anthropic/Claude provider
	ProviderAnthropic Provider = "anthropic"
	// ProviderNone disables remote generation; callers use their deterministic fallbacks
	ProviderNone Provider = "none"
)

// ParseProvider maps a configured name to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGemini, ProviderAnthropic, ProviderNone:
		return p, nil
	case "":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", s)
	}
}

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	MaxTokens   int
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}

// DefaultAnthropicConfig returns the default Anthropic configuration
func DefaultAnthropicConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Models: map[ModelTier]string{
			TierLite:     "claude-3-5-haiku-latest",
			TierStandard: "claude-sonnet-4-20250514",
			TierAdvanced: "claude-sonnet-4-20250514",
		},
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}

// ConfigFor returns the default configuration for a provider.
func ConfigFor(p Provider) *Config {
	switch p {
	case ProviderAnthropic:
		return DefaultAnthropicConfig()
	case ProviderNone:
		return &Config{Provider: ProviderNone, Models: map[ModelTier]string{}}
	default:
		return DefaultGeminiConfig()
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = maps.Clone(c.Models)
	if newConfig.Models == nil {
		newConfig.Models = map[ModelTier]string{}
	}
	newConfig.Models[tier] = model
	return &newConfig
}
