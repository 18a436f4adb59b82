package llm

import (
	"context"
	"fmt"
	"time"
)

// ProviderOptions selects and configures a ChatClient implementation.
type ProviderOptions struct {
	Provider string // "openai" or "gemini"
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewClient creates the ChatClient for the configured provider.
func NewClient(ctx context.Context, opts ProviderOptions) (ChatClient, error) {
	switch opts.Provider {
	case "", "openai":
		return NewOpenAIClient(OpenAIOptions{
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
			Model:   opts.Model,
			Timeout: opts.Timeout,
		})
	case "gemini":
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	}
	return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
}
