package generator

import (
	"context"
	"fmt"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/llm"
	"github.com/rs/zerolog/log"
)

// SocialWriter produces per-platform social media copy.
type SocialWriter interface {
	Generate(ctx context.Context, analysis *content.ImageAnalysis, opts content.GenerationOptions) (*content.SocialContent, error)
}

// SocialGenerator writes social media copy from an image analysis.
type SocialGenerator struct {
	client   llm.ChatClient
	retrier  *llm.Retrier
	settings Settings
}

func NewSocialGenerator(client llm.ChatClient, retrier *llm.Retrier, settings Settings) *SocialGenerator {
	return &SocialGenerator{client: client, retrier: retrier, settings: settings}
}

// Generate requests copy for opts.Platforms. Only requested platforms whose
// primary field came back non-empty are kept.
func (g *SocialGenerator) Generate(ctx context.Context, analysis *content.ImageAnalysis, opts content.GenerationOptions) (*content.SocialContent, error) {
	if opts.Language == "" {
		return nil, fmt.Errorf("%w: language is required", content.ErrValidation)
	}
	if len(opts.Platforms) == 0 {
		return nil, fmt.Errorf("%w: at least one platform is required", content.ErrValidation)
	}
	for _, p := range opts.Platforms {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown platform %q", content.ErrValidation, p)
		}
	}

	prompt, err := socialPrompt(analysis, opts)
	if err != nil {
		return nil, err
	}
	req := llm.ChatRequest{
		Messages: []llm.Message{
			llm.SystemMessage(systemPrompt),
			llm.UserMessage(llm.TextPart(prompt)),
		},
		Temperature: g.settings.Temperature,
		MaxTokens:   g.settings.MaxTokens,
	}

	resp, err := llm.Do(ctx, g.retrier, socialContext, func(ctx context.Context) (*llm.ChatResponse, error) {
		return g.client.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	raw, err := llm.Normalize(resp.Content, socialContext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return projectSocial(raw, opts.Platforms)
}

func projectSocial(raw map[string]any, requested []content.Platform) (*content.SocialContent, error) {
	result := &content.SocialContent{}

	if s := getMap(raw, "sentiment"); s != nil {
		result.Sentiment = &content.Sentiment{
			Positive: getFloat(s, "positive"),
			Neutral:  getFloat(s, "neutral"),
			Negative: getFloat(s, "negative"),
		}
	}
	if h := getMap(raw, "hashtags"); h != nil {
		result.Hashtags = &content.Hashtags{
			Recommended: getStrings(h, "recommended"),
			Niche:       getStrings(h, "niche"),
			Trending:    getStrings(h, "trending"),
		}
	}

	blocks := getMap(raw, "content")
	if blocks == nil {
		blocks = raw
	}

	if c := getMap(blocks, "common"); c != nil {
		common := &content.CommonContent{
			Title:       getString(c, "title"),
			Description: getString(c, "description"),
		}
		if common.Title != "" || common.Description != "" {
			result.Content.Common = common
		}
	}

	kept := 0
	for _, p := range requested {
		block := getMap(blocks, string(p))
		if getString(block, p.PrimaryField()) == "" {
			log.Debug().Str("platform", string(p)).Msg("dropping platform without primary field")
			continue
		}
		copyPlatform(p, block, &result.Content)
		kept++
	}

	if kept == 0 && result.Content.Common == nil {
		return nil, fmt.Errorf("%w: response contained no usable content", ErrGenerationFailed)
	}
	return result, nil
}

// copyPlatform projects one platform block. Callers have already checked
// that the primary field is present.
func copyPlatform(p content.Platform, src map[string]any, dst *content.PlatformContent) {
	switch p {
	case content.Instagram:
		dst.Instagram = &content.InstagramContent{
			Caption:      getString(src, "caption"),
			Hashtags:     getStrings(src, "hashtags"),
			CallToAction: getString(src, "callToAction", "call_to_action"),
		}
	case content.Facebook:
		dst.Facebook = &content.FacebookContent{
			Post:         getString(src, "post"),
			Headline:     getString(src, "headline"),
			CallToAction: getString(src, "callToAction", "call_to_action"),
		}
	case content.Twitter:
		dst.Twitter = &content.TwitterContent{
			Tweet:    getString(src, "tweet"),
			Hashtags: getStrings(src, "hashtags"),
			Thread:   getStrings(src, "thread"),
		}
	case content.LinkedIn:
		dst.LinkedIn = &content.LinkedInContent{
			Post:     getString(src, "post"),
			Headline: getString(src, "headline"),
			Hashtags: getStrings(src, "hashtags"),
		}
	case content.TikTok:
		dst.TikTok = &content.TikTokContent{
			Caption:  getString(src, "caption"),
			Hook:     getString(src, "hook"),
			Hashtags: getStrings(src, "hashtags"),
		}
	case content.Pinterest:
		dst.Pinterest = &content.PinterestContent{
			Description: getString(src, "description"),
			Title:       getString(src, "title"),
			Keywords:    getStrings(src, "keywords"),
		}
	case content.YouTube:
		dst.YouTube = &content.YouTubeContent{
			Title:       getString(src, "title"),
			Description: getString(src, "description"),
			Tags:        getStrings(src, "tags"),
		}
	case content.Threads:
		dst.Threads = &content.ThreadsContent{
			Post:     getString(src, "post"),
			Hashtags: getStrings(src, "hashtags"),
		}
	case content.Snapchat:
		dst.Snapchat = &content.SnapchatContent{
			Caption:      getString(src, "caption"),
			StickerIdeas: getStrings(src, "stickerIdeas", "sticker_ideas"),
		}
	case content.Medium:
		dst.Medium = &content.MediumContent{
			Title:    getString(src, "title"),
			Subtitle: getString(src, "subtitle"),
			Intro:    getString(src, "intro"),
			Tags:     getStrings(src, "tags"),
		}
	case content.Email:
		dst.Email = &content.EmailContent{
			Subject:      getString(src, "subject"),
			Preheader:    getString(src, "preheader"),
			Body:         getString(src, "body"),
			CallToAction: getString(src, "callToAction", "call_to_action"),
		}
	}
}
