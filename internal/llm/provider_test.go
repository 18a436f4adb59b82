package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(context.Background(), ProviderOptions{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	openai, ok := client.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", openai.Model())

	_, err = NewClient(context.Background(), ProviderOptions{Provider: "openai"})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	_, err = NewClient(context.Background(), ProviderOptions{Provider: "gemini"})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	_, err = NewClient(context.Background(), ProviderOptions{Provider: "llama", APIKey: "x"})
	assert.Error(t, err)
}
