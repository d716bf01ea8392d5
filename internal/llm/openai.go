package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator generates summaries with the chat completions API.
type OpenAIGenerator struct {
	client openai.Client
	opts   Options
}

// NewOpenAIGenerator creates a generator for the OpenAI API.
func NewOpenAIGenerator(apiKey string, opts Options) *OpenAIGenerator {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIGenerator{client: openai.NewClient(reqOpts...), opts: opts}
}

// GenerateSummary sends the prompt together with the system prompt.
func (g *OpenAIGenerator) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.opts.Temperature),
	}
	if g.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(g.opts.MaxTokens))
	}

	slog.DebugContext(ctx, "requesting completion", "provider", "openai", "model", g.opts.Model, "prompt_chars", len(prompt))
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return cleanResponse(resp.Choices[0].Message.Content)
}
