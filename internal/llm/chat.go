package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Role identifies the author of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image detail levels understood by vision models.
const (
	DetailHigh = "high"
	DetailLow  = "low"
	DetailAuto = "auto"
)

// Part is one piece of a chat turn. Exactly one of Text or ImageURL is set.
type Part struct {
	Text     string
	ImageURL string // data: URI or https URL
	Detail   string // Only meaningful for image parts
}

// Message is a role-tagged chat turn.
type Message struct {
	Role  Role
	Parts []Part
}

// ChatRequest is a provider-neutral chat completion request.
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// ChatResponse is the assistant text of the first choice plus usage.
type ChatResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// ChatClient sends a single chat completion request to an upstream model.
// Implementations return *StatusError for non-2xx upstream responses.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart creates an image part referencing a data URI or URL.
func ImagePart(url, detail string) Part {
	return Part{ImageURL: url, Detail: detail}
}

// SystemMessage creates a system turn with a single text part.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{TextPart(text)}}
}

// UserMessage creates a user turn from the given parts.
func UserMessage(parts ...Part) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// Text joins the text parts of a message.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

// EncodeDataURL encodes image bytes as a base64 data URI.
func EncodeDataURL(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL is the inverse of EncodeDataURL.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data URL has no payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URL: %w", err)
	}
	return data, mimeType, nil
}

func calculateCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
