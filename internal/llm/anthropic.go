package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator generates summaries with the messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropicGenerator creates a generator for the Anthropic API.
func NewAnthropicGenerator(apiKey string, opts Options) *AnthropicGenerator {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &AnthropicGenerator{client: anthropic.NewClient(reqOpts...), opts: opts}
}

// GenerateSummary sends the prompt as a single user turn.
func (g *AnthropicGenerator) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	maxTokens := int64(g.opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.opts.Model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: SystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(g.opts.Temperature),
	}

	slog.DebugContext(ctx, "requesting completion", "provider", "anthropic", "model", g.opts.Model, "prompt_chars", len(prompt))
	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return cleanResponse(text)
}
