package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicMessager is the subset of the Anthropic SDK used by AnthropicClient.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClient implements Client for Anthropic Claude models
type AnthropicClient struct {
	messages AnthropicMessager
	config   *Config
}

// NewAnthropicClient creates a client backed by the Anthropic Messages API.
func NewAnthropicClient(config *Config, apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicClientWith(config, &c.Messages), nil
}

// NewAnthropicClientWith wraps an existing messages service.
func NewAnthropicClientWith(config *Config, messages AnthropicMessager) *AnthropicClient {
	if config == nil {
		config = DefaultAnthropicConfig()
	}
	return &AnthropicClient{messages: messages, config: config}
}

// Generate runs one completion against the model configured for req.Tier.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}
	maxTokens := int64(c.config.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(float64(c.config.Temperature)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text blocks in response")
	}
	if req.JSON {
		return CleanJSONBlock(sb.String()), nil
	}
	return sb.String(), nil
}

// GetModel returns the model name for a tier
func (c *AnthropicClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the SDK holds no resources.
func (c *AnthropicClient) Close() error { return nil }
