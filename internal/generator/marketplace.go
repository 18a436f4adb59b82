package generator

import (
	"context"
	"fmt"
	"math"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/llm"
)

// ListingWriter produces a marketplace listing.
type ListingWriter interface {
	Generate(ctx context.Context, analysis *content.ImageAnalysis, opts content.GenerationOptions) (*content.MarketplaceContent, error)
}

// MarketplaceGenerator writes a listing for one marketplace and category.
type MarketplaceGenerator struct {
	client   llm.ChatClient
	retrier  *llm.Retrier
	settings Settings
}

func NewMarketplaceGenerator(client llm.ChatClient, retrier *llm.Retrier, settings Settings) *MarketplaceGenerator {
	return &MarketplaceGenerator{client: client, retrier: retrier, settings: settings}
}

// Generate requests a listing for opts.Platform in opts.Category. Listing
// blocks for other marketplaces are dropped from the result.
func (g *MarketplaceGenerator) Generate(ctx context.Context, analysis *content.ImageAnalysis, opts content.GenerationOptions) (*content.MarketplaceContent, error) {
	if opts.Language == "" {
		return nil, fmt.Errorf("%w: language is required", content.ErrValidation)
	}
	if opts.Category == "" {
		return nil, fmt.Errorf("%w: category is required", content.ErrValidation)
	}
	if !opts.Platform.Valid() {
		return nil, fmt.Errorf("%w: unknown marketplace %q", content.ErrValidation, opts.Platform)
	}
	if opts.Currency == "" {
		opts.Currency = content.DefaultCurrency
	}

	prompt, err := marketplacePrompt(analysis, opts)
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

	resp, err := llm.Do(ctx, g.retrier, marketplaceContext, func(ctx context.Context) (*llm.ChatResponse, error) {
		return g.client.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	raw, err := llm.Normalize(resp.Content, marketplaceContext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return projectMarketplace(raw, opts)
}

func projectMarketplace(raw map[string]any, opts content.GenerationOptions) (*content.MarketplaceContent, error) {
	result := &content.MarketplaceContent{
		Title:           getString(raw, "title"),
		Description:     getString(raw, "description"),
		Features:        getStrings(raw, "features"),
		Specifications:  getStringMap(raw, "specifications"),
		MarketingPoints: getStrings(raw, "marketingPoints", "marketing_points"),
	}
	if result.Title == "" || result.Description == "" {
		return nil, fmt.Errorf("%w: listing title and description are required", ErrGenerationFailed)
	}

	if p := getMap(raw, "pricing"); p != nil {
		result.Pricing = projectPricing(p, opts.Currency)
	}
	if s := getMap(raw, "seo"); s != nil {
		result.SEO = &content.SEO{
			Title:       getString(s, "title"),
			Description: getString(s, "description"),
			Keywords:    getStrings(s, "keywords"),
		}
	}

	listings := getMap(raw, "platformSpecific", "platform_specific")
	if block := getMap(listings, string(opts.Platform)); block != nil {
		copyListing(opts.Platform, block, &result.PlatformSpecific)
	}

	if a := getMap(raw, "marketingAssets", "marketing_assets"); a != nil {
		result.MarketingAssets = projectAssets(a)
	}
	if m := getMap(raw, "marketAnalysis", "market_analysis"); m != nil {
		competitors := getMap(m, "competitors")
		result.MarketAnalysis = &content.MarketAnalysis{
			Size: getString(m, "size"),
			Competitors: content.Competitors{
				Direct:   getStrings(competitors, "direct"),
				Indirect: getStrings(competitors, "indirect"),
			},
			Trends:        getStrings(m, "trends"),
			Opportunities: getStrings(m, "opportunities"),
			Threats:       getStrings(m, "threats"),
		}
	}
	if media := getMap(raw, "media"); media != nil {
		result.Media = media
	}

	return result, nil
}

func projectPricing(p map[string]any, fallbackCurrency string) *content.Pricing {
	pricing := &content.Pricing{
		Regular:  getFloat(p, "regular"),
		Sale:     getFloat(p, "sale"),
		MSRP:     getFloat(p, "msrp"),
		Currency: getString(p, "currency"),
	}
	if pricing.Currency == "" {
		pricing.Currency = fallbackCurrency
	}
	if r := getMap(p, "suggestedRange", "suggested_range"); r != nil {
		pricing.SuggestedRange = &content.PriceRange{
			Min: getFloat(r, "min"),
			Max: getFloat(r, "max"),
		}
	}
	for _, tier := range getMaps(p, "competitiveTiers", "competitive_tiers") {
		pricing.CompetitiveTiers = append(pricing.CompetitiveTiers, content.PriceTier{
			Name:        getString(tier, "name"),
			Price:       getFloat(tier, "price"),
			Description: getString(tier, "description"),
		})
	}
	return pricing
}

func projectAssets(a map[string]any) *content.MarketingAssets {
	assets := &content.MarketingAssets{
		SocialSnippets: getStringMap(a, "socialSnippets", "social_snippets"),
	}
	for _, t := range getMaps(a, "emailTemplates", "email_templates") {
		assets.EmailTemplates = append(assets.EmailTemplates, content.EmailTemplate{
			Name:    getString(t, "name"),
			Subject: getString(t, "subject"),
			Body:    getString(t, "body"),
		})
	}
	for _, s := range getMaps(a, "nurturingSequence", "nurturing_sequence") {
		assets.NurturingSequence = append(assets.NurturingSequence, content.NurturingStep{
			Day:     int(math.Round(getFloat(s, "day"))),
			Subject: getString(s, "subject"),
			Body:    getString(s, "body"),
		})
	}
	return assets
}

func copyListing(m content.Marketplace, src map[string]any, dst *content.PlatformListings) {
	switch m {
	case content.Amazon:
		dst.Amazon = &content.AmazonListing{
			BulletPoints: getStrings(src, "bulletPoints", "bullet_points"),
			SearchTerms:  getStrings(src, "searchTerms", "search_terms"),
			BrowseNode:   getString(src, "browseNode", "browse_node"),
		}
	case content.Etsy:
		dst.Etsy = &content.EtsyListing{
			Tags:      getStrings(src, "tags"),
			Materials: getStrings(src, "materials"),
			Occasion:  getString(src, "occasion"),
			Style:     getString(src, "style"),
		}
	case content.Ebay:
		dst.Ebay = &content.EbayListing{
			Condition:     getString(src, "condition"),
			ListingFormat: getString(src, "listingFormat", "listing_format"),
			ItemSpecifics: getStringMap(src, "itemSpecifics", "item_specifics"),
		}
	case content.Shopify:
		dst.Shopify = &content.ShopifyListing{
			ProductType: getString(src, "productType", "product_type"),
			Vendor:      getString(src, "vendor"),
			Collections: getStrings(src, "collections"),
			Tags:        getStrings(src, "tags"),
		}
	}
}
