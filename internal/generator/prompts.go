package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/raine/copywriter-bot/internal/content"
)

const systemPrompt = `You are an expert e-commerce copywriter and visual merchandiser. You look at product and lifestyle photos and write accurate, persuasive marketing copy. Never invent facts that are not visible in the image or given by the user. Always respond with a single JSON object and nothing else.`

const analysisPrompt = `Analyze the attached image as a product or lifestyle photo.

Respond in JSON format with these fields:
- categories: list of product categories the item belongs to, most specific first
- tags: list of short descriptive tags (materials, colors, use cases)
- description: 2-3 sentence description of what is shown
- visualImpact: object with composition (string), style (string) and colors (list of dominant colors)
- technicalDetails: object with materials (list), dimensions (string, estimate if not visible, empty if unknown) and specifications (object of name to value)
- marketAnalysis: object with targetAudience (list), pricePoint (one of "budget", "mid-range", "premium", "luxury") and uniqueSellingPoints (list)

Example response:
{"categories": ["Footwear", "Sneakers"], "tags": ["leather", "white", "casual"], "description": "A pair of white leather sneakers on a wooden floor.", "visualImpact": {"composition": "centered product shot", "style": "minimal", "colors": ["white", "beige"]}, "technicalDetails": {"materials": ["leather", "rubber"], "dimensions": "", "specifications": {"closure": "laces"}}, "marketAnalysis": {"targetAudience": ["young professionals"], "pricePoint": "mid-range", "uniqueSellingPoints": ["clean design"]}}

Respond ONLY with the JSON object, no markdown or other text.`

// socialFieldHints describes the fields requested for each platform.
var socialFieldHints = map[content.Platform]string{
	content.Instagram: `"instagram": {"caption": string, "hashtags": [string], "callToAction": string}`,
	content.Facebook:  `"facebook": {"post": string, "headline": string, "callToAction": string}`,
	content.Twitter:   `"twitter": {"tweet": string (max 280 characters), "hashtags": [string], "thread": [string]}`,
	content.LinkedIn:  `"linkedin": {"post": string, "headline": string, "hashtags": [string]}`,
	content.TikTok:    `"tiktok": {"caption": string, "hook": string, "hashtags": [string]}`,
	content.Pinterest: `"pinterest": {"title": string, "description": string, "keywords": [string]}`,
	content.YouTube:   `"youtube": {"title": string, "description": string, "tags": [string]}`,
	content.Threads:   `"threads": {"post": string, "hashtags": [string]}`,
	content.Snapchat:  `"snapchat": {"caption": string, "stickerIdeas": [string]}`,
	content.Medium:    `"medium": {"title": string, "subtitle": string, "intro": string, "tags": [string]}`,
	content.Email:     `"email": {"subject": string, "preheader": string, "body": string, "callToAction": string}`,
}

func analysisUserText(opts content.GenerationOptions) string {
	text := fmt.Sprintf("Write all text values in %s.", opts.Language)
	if opts.AdditionalDescription != "" {
		text += "\nAdditional context from the seller: " + opts.AdditionalDescription
	}
	return text
}

func socialPrompt(analysis *content.ImageAnalysis, opts content.GenerationOptions) (string, error) {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	names := make([]string, 0, len(opts.Platforms))
	hints := make([]string, 0, len(opts.Platforms))
	for _, p := range opts.Platforms {
		names = append(names, string(p))
		hints = append(hints, "    "+socialFieldHints[p])
	}

	var b strings.Builder
	fmt.Fprintf(&b, dedent.Dedent(`
		Write social media content for the product described by this image analysis:
		%s

		Tone: %s
		Language: %s
		`), analysisJSON, opts.Tone, opts.Language)
	if opts.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", opts.Industry)
	}
	if opts.AdditionalDescription != "" {
		fmt.Fprintf(&b, "Additional description: %s\n", opts.AdditionalDescription)
	}
	fmt.Fprintf(&b, "\nOnly write content for these platforms: %s. Do not include any other platform.\n", strings.Join(names, ", "))
	b.WriteString(dedent.Dedent(`
		Respond in JSON format with these fields:
		- sentiment: object with positive, neutral and negative percentages (numbers 0-100)
		- hashtags: object with recommended, niche and trending lists
		- content: object with
		    "common": {"title": string, "description": string}
		`))
	b.WriteString(strings.Join(hints, "\n"))
	b.WriteString("\n\nRespond ONLY with the JSON object, no markdown or other text.")
	return b.String(), nil
}

func marketplacePrompt(analysis *content.ImageAnalysis, opts content.GenerationOptions) (string, error) {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, dedent.Dedent(`
		Write a complete marketplace listing for the product described by this image analysis:
		%s

		Category: %s
		Marketplace: %s
		Tone: %s
		Language: %s
		Currency: %s
		`), analysisJSON, opts.Category, opts.Platform, opts.Tone, opts.Language, opts.Currency)
	if opts.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", opts.Industry)
	}
	if opts.PriceRange != "" {
		fmt.Fprintf(&b, "Expected price range: %s\n", opts.PriceRange)
	}
	if opts.AdditionalDescription != "" {
		fmt.Fprintf(&b, "Additional description: %s\n", opts.AdditionalDescription)
	}
	fmt.Fprintf(&b, dedent.Dedent(`
		Respond in JSON format with these fields:
		- title, description (strings)
		- features (list), specifications (object of name to value), marketingPoints (list)
		- pricing: {"regular": number, "sale": number, "msrp": number, "currency": string, "suggestedRange": {"min": number, "max": number}, "competitiveTiers": [{"name": string, "price": number, "description": string}]}
		- seo: {"title": string, "description": string, "keywords": [string]}
		- platformSpecific: {"%s": {...}} with only the listing fields that %s uses
		- marketingAssets: {"emailTemplates": [{"name", "subject", "body"}], "nurturingSequence": [{"day": number, "subject", "body"}], "socialSnippets": {platform: text}}
		- marketAnalysis: {"size": string, "competitors": {"direct": [string], "indirect": [string]}, "trends": [string], "opportunities": [string], "threats": [string]}

		Respond ONLY with the JSON object, no markdown or other text.`), opts.Platform, opts.Platform)
	return b.String(), nil
}
