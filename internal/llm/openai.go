package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o"

	// DefaultCallTimeout bounds a single upstream HTTP call.
	DefaultCallTimeout = 60 * time.Second
)

// GPT-4o pricing (per million tokens)
const (
	openaiInputPricePerMillion  = 2.50
	openaiOutputPricePerMillion = 10.00
)

// ErrMissingAPIKey indicates that a client was configured without credentials.
var ErrMissingAPIKey = errors.New("llm: api key is required")

// OpenAIOptions configures an OpenAI-compatible chat completion client.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient talks to any endpoint implementing the OpenAI chat
// completions API.
type OpenAIClient struct {
	httpClient *resty.Client
	model      string
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role string `json:"role"`
	// Content is a plain string for text-only turns and a part list otherwise.
	Content any `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient creates a client with defaults for unset options.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	httpClient := resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &OpenAIClient{httpClient: httpClient, model: model}, nil
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete implements ChatClient.
func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload := openAIChatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    toOpenAIMessages(req.Messages),
	}

	var result openAIChatResponse
	var apiErr openAIErrorResponse
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	if res.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(res.String())
		}
		return nil, NewStatusError(res.StatusCode(), msg)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in chat completion response", ErrMalformedResponse)
	}

	usage := Usage{
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
		CostUSD:      calculateCost(result.Usage.PromptTokens, result.Usage.CompletionTokens, openaiInputPricePerMillion, openaiOutputPricePerMillion),
	}

	model := result.Model
	if model == "" {
		model = c.model
	}

	log.Info().
		Str("model", model).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("chat completion llm call")

	return &ChatResponse{
		Content: result.Choices[0].Message.Content,
		Model:   model,
		Usage:   usage,
	}, nil
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		if !hasImage(m) {
			out = append(out, openAIMessage{Role: string(m.Role), Content: m.Text()})
			continue
		}
		parts := make([]openAIContentPart, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.ImageURL != "" {
				parts = append(parts, openAIContentPart{
					Type:     "image_url",
					ImageURL: &openAIImageURL{URL: p.ImageURL, Detail: p.Detail},
				})
				continue
			}
			parts = append(parts, openAIContentPart{Type: "text", Text: p.Text})
		}
		out = append(out, openAIMessage{Role: string(m.Role), Content: parts})
	}
	return out
}

func hasImage(m Message) bool {
	for _, p := range m.Parts {
		if p.ImageURL != "" {
			return true
		}
	}
	return false
}
