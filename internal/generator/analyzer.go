package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/llm"
)

var (
	// ErrAnalysisFailed is returned when the analysis response lacks
	// categories, tags or a description, or could not be parsed.
	ErrAnalysisFailed = errors.New("image analysis failed")
	// ErrGenerationFailed is returned when a generator response has no
	// usable content, or could not be parsed.
	ErrGenerationFailed = errors.New("content generation failed")
)

const (
	analysisContext    = "image-analysis"
	socialContext      = "social-generation"
	marketplaceContext = "marketplace-generation"
)

// Settings are the sampling parameters shared by every request.
type Settings struct {
	Temperature float64
	MaxTokens   int
}

// DefaultSettings match what the copy prompts were tuned with.
var DefaultSettings = Settings{Temperature: 0.7, MaxTokens: 4096}

// Analyzer turns an uploaded image into an ImageAnalysis.
type Analyzer interface {
	Analyze(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.ImageAnalysis, error)
}

// ImageAnalyzer sends one vision request per image.
type ImageAnalyzer struct {
	client   llm.ChatClient
	retrier  *llm.Retrier
	settings Settings
}

func NewImageAnalyzer(client llm.ChatClient, retrier *llm.Retrier, settings Settings) *ImageAnalyzer {
	return &ImageAnalyzer{client: client, retrier: retrier, settings: settings}
}

// Analyze describes the image. The language option must be set.
func (a *ImageAnalyzer) Analyze(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.ImageAnalysis, error) {
	if opts.Language == "" {
		return nil, fmt.Errorf("%w: language is required", content.ErrValidation)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	req := llm.ChatRequest{
		Messages: []llm.Message{
			llm.SystemMessage(systemPrompt),
			llm.SystemMessage(analysisPrompt),
			llm.UserMessage(
				llm.TextPart(analysisUserText(opts)),
				llm.ImagePart(llm.EncodeDataURL(img.Data, img.MIMEType), llm.DetailHigh),
			),
		},
		Temperature: a.settings.Temperature,
		MaxTokens:   a.settings.MaxTokens,
	}

	resp, err := llm.Do(ctx, a.retrier, analysisContext, func(ctx context.Context) (*llm.ChatResponse, error) {
		return a.client.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	raw, err := llm.Normalize(resp.Content, analysisContext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	return projectAnalysis(raw)
}

func projectAnalysis(raw map[string]any) (*content.ImageAnalysis, error) {
	analysis := &content.ImageAnalysis{
		Categories:  getStrings(raw, "categories", "category"),
		Tags:        getStrings(raw, "tags"),
		Description: getString(raw, "description"),
	}

	var missing []string
	if len(analysis.Categories) == 0 {
		missing = append(missing, "categories")
	}
	if len(analysis.Tags) == 0 {
		missing = append(missing, "tags")
	}
	if analysis.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: response is missing %v", ErrAnalysisFailed, missing)
	}

	visual := getMap(raw, "visualImpact", "visual_impact")
	analysis.VisualImpact = content.VisualImpact{
		Composition: getString(visual, "composition"),
		Style:       getString(visual, "style"),
		Colors:      getStrings(visual, "colors", "colours"),
	}

	technical := getMap(raw, "technicalDetails", "technical_details")
	analysis.TechnicalDetails = content.TechnicalDetails{
		Materials:      getStrings(technical, "materials"),
		Dimensions:     getString(technical, "dimensions"),
		Specifications: getStringMap(technical, "specifications"),
	}

	market := getMap(raw, "marketAnalysis", "market_analysis")
	analysis.MarketAnalysis = content.MarketPosition{
		TargetAudience:      getStrings(market, "targetAudience", "target_audience"),
		PricePoint:          content.ParsePricePoint(getString(market, "pricePoint", "price_point")),
		UniqueSellingPoints: getStrings(market, "uniqueSellingPoints", "unique_selling_points"),
	}

	return analysis, nil
}
