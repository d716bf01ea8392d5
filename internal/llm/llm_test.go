package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huangsam/recap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path   string
	Header http.Header
	Body   map[string]any
}

func newServer(t *testing.T, response string, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Header = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured.Body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

const openAIResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1715335200,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop",
    "message": {"role": "assistant", "content": "  Shipped retries for the exporter.\n"}}]
}`

const anthropicResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-haiku-latest",
  "content": [{"type": "text", "text": "Led the exporter rework. "}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestOpenAIGenerator(t *testing.T) {
	srv, captured := newServer(t, openAIResponse, http.StatusOK)
	gen, err := NewGenerator(schema.OpenAIProvider, "sk-test", Options{
		Model:       "gpt-4o-mini",
		BaseURL:     srv.URL + "/",
		Temperature: 0.7,
		MaxTokens:   256,
	})
	require.NoError(t, err)

	out, err := gen.GenerateSummary(context.Background(), "Description: Fix bug\nWeight: 1.5\n----\n")
	require.NoError(t, err)
	assert.Equal(t, "Shipped retries for the exporter.", out, "response is trimmed")

	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "Bearer sk-test", captured.Header.Get("Authorization"))
	assert.Equal(t, "gpt-4o-mini", captured.Body["model"])
	assert.InDelta(t, 0.7, captured.Body["temperature"], 1e-9)

	messages, ok := captured.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, SystemPrompt, system["content"])
	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "Description: Fix bug")
}

func TestAnthropicGenerator(t *testing.T) {
	srv, captured := newServer(t, anthropicResponse, http.StatusOK)
	gen, err := NewGenerator(schema.AnthropicProvider, "sk-ant", Options{
		Model:       "claude-3-5-haiku-latest",
		BaseURL:     srv.URL + "/",
		Temperature: 0.7,
	})
	require.NoError(t, err)

	out, err := gen.GenerateSummary(context.Background(), "Description: x\nWeight: 2\n----\n")
	require.NoError(t, err)
	assert.Equal(t, "Led the exporter rework.", out)

	assert.Equal(t, "/v1/messages", captured.Path)
	assert.Equal(t, "sk-ant", captured.Header.Get("X-Api-Key"))
	assert.Equal(t, float64(1024), captured.Body["max_tokens"], "max tokens falls back to 1024")

	system, ok := captured.Body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, SystemPrompt, system[0].(map[string]any)["text"])
}

func TestGeneratorErrors(t *testing.T) {
	t.Run("empty completion", func(t *testing.T) {
		srv, _ := newServer(t, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"   "}}]}`, http.StatusOK)
		gen := NewOpenAIGenerator("sk", Options{Model: "m", BaseURL: srv.URL + "/"})
		_, err := gen.GenerateSummary(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("no choices", func(t *testing.T) {
		srv, _ := newServer(t, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, http.StatusOK)
		gen := NewOpenAIGenerator("sk", Options{Model: "m", BaseURL: srv.URL + "/"})
		_, err := gen.GenerateSummary(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("api error", func(t *testing.T) {
		srv, _ := newServer(t, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, http.StatusUnauthorized)
		gen := NewOpenAIGenerator("sk", Options{Model: "m", BaseURL: srv.URL + "/"})
		_, err := gen.GenerateSummary(context.Background(), "p")
		assert.ErrorContains(t, err, "openai")
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewGenerator(schema.OpenAIProvider, "", Options{})
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewGenerator("cohere", "k", Options{})
		assert.Error(t, err)
	})
}
