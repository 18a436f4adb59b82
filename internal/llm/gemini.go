package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini 2.5 Flash pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30 // text/image/video
	geminiOutputPricePerMillion = 2.50 // including thinking
)

// GeminiClient implements ChatClient on top of Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini-based chat client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Model returns the configured model identifier.
func (g *GeminiClient) Model() string {
	return g.model
}

// Complete implements ChatClient. System turns become the system instruction;
// image parts must be data URIs.
func (g *GeminiClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system, contents, err := buildGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
		SystemInstruction: system,
		ResponseMIMEType:  "application/json",
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, NewStatusError(apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from Gemini", ErrMalformedResponse)
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.model).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("gemini llm call")

	return &ChatResponse{Content: result.Text(), Model: g.model, Usage: usage}, nil
}

// buildGeminiContents splits chat messages into a system instruction and
// conversation contents.
func buildGeminiContents(messages []Message) (*genai.Content, []*genai.Content, error) {
	var systemTexts []string
	var contents []*genai.Content

	for _, m := range messages {
		if m.Role == RoleSystem {
			systemTexts = append(systemTexts, m.Text())
			continue
		}

		parts := make([]*genai.Part, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.ImageURL == "" {
				parts = append(parts, genai.NewPartFromText(p.Text))
				continue
			}
			data, mimeType, err := DecodeDataURL(p.ImageURL)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: unsupported image reference: %v", ErrRequestRejected, err)
			}
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{Data: data, MIMEType: mimeType},
			})
		}

		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("%w: no user content", ErrRequestRejected)
	}

	var system *genai.Content
	if len(systemTexts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemTexts, "\n\n"), genai.RoleUser)
	}
	return system, contents, nil
}
