// Package llm turns a prompt into a LinkedIn-ready summary using a hosted model.
package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// SystemPrompt instructs the model how to write the summary.
const SystemPrompt = "You are a helpful assistant that summarizes GitLab activity for a user " +
	"into a LinkedIn-ready summary to help them get a job. Highlight the user's contributions " +
	"to the company and their skills. This will be made public, so be careful not to include " +
	"any sensitive information. Using the weights provided, highlight the more recent contributions. " +
	"Here is a link to documentation on how to write a good LinkedIn experience: " +
	`<a href="https://www.linkedin.com/pulse/how-write-your-linkedin-experience-section-examples-karen-tisdell/">` +
	"How to write your LinkedIn experience section: examples</a>"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Options holds the provider-independent settings of a generator.
type Options struct {
	Model       string
	BaseURL     string // empty = provider default
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

// NewGenerator builds the generator for a provider.
func NewGenerator(provider schema.LLMProvider, apiKey string, opts Options) (contract.TextGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: missing API key for %s", provider)
	}
	switch provider {
	case schema.OpenAIProvider:
		return NewOpenAIGenerator(apiKey, opts), nil
	case schema.AnthropicProvider:
		return NewAnthropicGenerator(apiKey, opts), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", provider)
	}
}

// cleanResponse trims the generated text and rejects empty output.
func cleanResponse(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
