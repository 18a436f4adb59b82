package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var req *http.Request
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"gpt-4o-2024-08-06","choices":[{"message":{"content":"{\"ok\":true}"}}],"usage":{"prompt_tokens":1000,"completion_tokens":100,"total_tokens":1100}}`)
	}))
	defer ts.Close()

	client, err := NewOpenAIClient(OpenAIOptions{APIKey: "secret", BaseURL: ts.URL, Model: "gpt-4o"})
	require.NoError(t, err)

	res, err := client.Complete(context.Background(), ChatRequest{
		Temperature: 0.7,
		MaxTokens:   500,
		Messages: []Message{
			SystemMessage("be helpful"),
			UserMessage(TextPart("describe"), ImagePart("data:image/png;base64,AAAA", DetailHigh)),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", req.URL.Path)
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Equal(t, `{"ok":true}`, res.Content)
	assert.Equal(t, "gpt-4o-2024-08-06", res.Model)
	assert.Equal(t, int64(1000), res.Usage.InputTokens)
	assert.Equal(t, int64(1100), res.Usage.TotalTokens)
	assert.InDelta(t, 0.0035, res.Usage.CostUSD, 1e-9)

	assert.Equal(t, "gpt-4o", body["model"])
	assert.Equal(t, float64(500), body["max_tokens"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)

	system := messages[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "be helpful", system["content"])

	user := messages[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, map[string]any{"type": "text", "text": "describe"}, parts[0])
	assert.Equal(t, map[string]any{
		"type":      "image_url",
		"image_url": map[string]any{"url": "data:image/png;base64,AAAA", "detail": "high"},
	}, parts[1])
}

func TestOpenAIClient_StatusErrors(t *testing.T) {
	cases := []struct {
		status int
		kind   error
	}{
		{http.StatusBadRequest, ErrRequestRejected},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrUpstreamServer},
		{http.StatusServiceUnavailable, ErrUpstreamServer},
		{http.StatusUnauthorized, ErrUpstreamUnknown},
	}

	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			io.WriteString(w, `{"error":{"message":"nope","type":"test"}}`)
		}))

		client, err := NewOpenAIClient(OpenAIOptions{APIKey: "k", BaseURL: ts.URL})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), ChatRequest{Messages: []Message{UserMessage(TextPart("hi"))}})
		ts.Close()

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, tc.status, statusErr.StatusCode)
		assert.Equal(t, "nope", statusErr.Message)
		assert.ErrorIs(t, err, tc.kind)
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer ts.Close()

	client, err := NewOpenAIClient(OpenAIOptions{APIKey: "k", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), ChatRequest{Messages: []Message{UserMessage(TextPart("hi"))}})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIOptions{APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
