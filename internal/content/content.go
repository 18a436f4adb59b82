package content

// PricePoint is the market segment the analyzer places a product in.
type PricePoint string

const (
	PriceBudget   PricePoint = "budget"
	PriceMidRange PricePoint = "mid-range"
	PricePremium  PricePoint = "premium"
	PriceLuxury   PricePoint = "luxury"
)

// ParsePricePoint maps loose model output onto the enum. Unknown values
// yield the empty price point.
func ParsePricePoint(s string) PricePoint {
	switch normalizeKey(s) {
	case "budget", "low", "economy":
		return PriceBudget
	case "midrange", "mid", "medium", "moderate":
		return PriceMidRange
	case "premium", "high":
		return PricePremium
	case "luxury":
		return PriceLuxury
	}
	return ""
}

func normalizeKey(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c+'a'-'A')
		case c >= 'a' && c <= 'z':
			b = append(b, c)
		}
	}
	return string(b)
}

// ImageAnalysis is the structured description of an uploaded image.
type ImageAnalysis struct {
	Categories       []string         `json:"categories"`
	Tags             []string         `json:"tags"`
	Description      string           `json:"description"`
	VisualImpact     VisualImpact     `json:"visualImpact"`
	TechnicalDetails TechnicalDetails `json:"technicalDetails"`
	MarketAnalysis   MarketPosition   `json:"marketAnalysis"`
}

type VisualImpact struct {
	Composition string   `json:"composition,omitempty"`
	Style       string   `json:"style,omitempty"`
	Colors      []string `json:"colors,omitempty"`
}

type TechnicalDetails struct {
	Materials      []string          `json:"materials,omitempty"`
	Dimensions     string            `json:"dimensions,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

type MarketPosition struct {
	TargetAudience      []string   `json:"targetAudience,omitempty"`
	PricePoint          PricePoint `json:"pricePoint,omitempty"`
	UniqueSellingPoints []string   `json:"uniqueSellingPoints,omitempty"`
}

// SocialContent is the social-mode generation result. A platform record is
// present only when that platform was requested and the model produced its
// primary field.
type SocialContent struct {
	Sentiment *Sentiment      `json:"sentiment,omitempty"`
	Hashtags  *Hashtags       `json:"hashtags,omitempty"`
	Content   PlatformContent `json:"content"`
}

// Sentiment scores are percentages as returned by the model. They are not
// forced to sum to 100.
type Sentiment struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

type Hashtags struct {
	Recommended []string `json:"recommended,omitempty"`
	Niche       []string `json:"niche,omitempty"`
	Trending    []string `json:"trending,omitempty"`
}

type CommonContent struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type PlatformContent struct {
	Common    *CommonContent    `json:"common,omitempty"`
	Instagram *InstagramContent `json:"instagram,omitempty"`
	Facebook  *FacebookContent  `json:"facebook,omitempty"`
	Twitter   *TwitterContent   `json:"twitter,omitempty"`
	LinkedIn  *LinkedInContent  `json:"linkedin,omitempty"`
	TikTok    *TikTokContent    `json:"tiktok,omitempty"`
	Pinterest *PinterestContent `json:"pinterest,omitempty"`
	YouTube   *YouTubeContent   `json:"youtube,omitempty"`
	Threads   *ThreadsContent   `json:"threads,omitempty"`
	Snapchat  *SnapchatContent  `json:"snapchat,omitempty"`
	Medium    *MediumContent    `json:"medium,omitempty"`
	Email     *EmailContent     `json:"email,omitempty"`
}

// Platforms returns the platforms that have a record, in canonical order.
func (c PlatformContent) Platforms() []Platform {
	present := map[Platform]bool{
		Instagram: c.Instagram != nil,
		Facebook:  c.Facebook != nil,
		Twitter:   c.Twitter != nil,
		LinkedIn:  c.LinkedIn != nil,
		TikTok:    c.TikTok != nil,
		Pinterest: c.Pinterest != nil,
		YouTube:   c.YouTube != nil,
		Threads:   c.Threads != nil,
		Snapchat:  c.Snapchat != nil,
		Medium:    c.Medium != nil,
		Email:     c.Email != nil,
	}
	var out []Platform
	for _, p := range SocialPlatforms {
		if present[p] {
			out = append(out, p)
		}
	}
	return out
}

type InstagramContent struct {
	Caption      string   `json:"caption"`
	Hashtags     []string `json:"hashtags,omitempty"`
	CallToAction string   `json:"callToAction,omitempty"`
}

type FacebookContent struct {
	Post         string `json:"post"`
	Headline     string `json:"headline,omitempty"`
	CallToAction string `json:"callToAction,omitempty"`
}

type TwitterContent struct {
	Tweet    string   `json:"tweet"`
	Hashtags []string `json:"hashtags,omitempty"`
	Thread   []string `json:"thread,omitempty"`
}

type LinkedInContent struct {
	Post     string   `json:"post"`
	Headline string   `json:"headline,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

type TikTokContent struct {
	Caption  string   `json:"caption"`
	Hook     string   `json:"hook,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

type PinterestContent struct {
	Description string   `json:"description"`
	Title       string   `json:"title,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

type YouTubeContent struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type ThreadsContent struct {
	Post     string   `json:"post"`
	Hashtags []string `json:"hashtags,omitempty"`
}

type SnapchatContent struct {
	Caption      string   `json:"caption"`
	StickerIdeas []string `json:"stickerIdeas,omitempty"`
}

type MediumContent struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Intro    string   `json:"intro,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type EmailContent struct {
	Subject      string `json:"subject"`
	Preheader    string `json:"preheader,omitempty"`
	Body         string `json:"body,omitempty"`
	CallToAction string `json:"callToAction,omitempty"`
}

// MarketplaceContent is the marketplace-mode generation result.
type MarketplaceContent struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Features         []string          `json:"features,omitempty"`
	Specifications   map[string]string `json:"specifications,omitempty"`
	Pricing          *Pricing          `json:"pricing,omitempty"`
	SEO              *SEO              `json:"seo,omitempty"`
	MarketingPoints  []string          `json:"marketingPoints,omitempty"`
	PlatformSpecific PlatformListings  `json:"platformSpecific"`
	MarketingAssets  *MarketingAssets  `json:"marketingAssets,omitempty"`
	MarketAnalysis   *MarketAnalysis   `json:"marketAnalysis,omitempty"`
	Media            map[string]any    `json:"media,omitempty"`
}

type Pricing struct {
	Regular          float64     `json:"regular"`
	Sale             float64     `json:"sale"`
	MSRP             float64     `json:"msrp"`
	Currency         string      `json:"currency"`
	SuggestedRange   *PriceRange `json:"suggestedRange,omitempty"`
	CompetitiveTiers []PriceTier `json:"competitiveTiers,omitempty"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type PriceTier struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

type SEO struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

type PlatformListings struct {
	Amazon  *AmazonListing  `json:"amazon,omitempty"`
	Etsy    *EtsyListing    `json:"etsy,omitempty"`
	Ebay    *EbayListing    `json:"ebay,omitempty"`
	Shopify *ShopifyListing `json:"shopify,omitempty"`
}

// Marketplaces returns the marketplaces that have a listing block.
func (l PlatformListings) Marketplaces() []Marketplace {
	var out []Marketplace
	if l.Amazon != nil {
		out = append(out, Amazon)
	}
	if l.Etsy != nil {
		out = append(out, Etsy)
	}
	if l.Ebay != nil {
		out = append(out, Ebay)
	}
	if l.Shopify != nil {
		out = append(out, Shopify)
	}
	return out
}

type AmazonListing struct {
	BulletPoints []string `json:"bulletPoints,omitempty"`
	SearchTerms  []string `json:"searchTerms,omitempty"`
	BrowseNode   string   `json:"browseNode,omitempty"`
}

type EtsyListing struct {
	Tags      []string `json:"tags,omitempty"`
	Materials []string `json:"materials,omitempty"`
	Occasion  string   `json:"occasion,omitempty"`
	Style     string   `json:"style,omitempty"`
}

type EbayListing struct {
	Condition     string            `json:"condition,omitempty"`
	ListingFormat string            `json:"listingFormat,omitempty"`
	ItemSpecifics map[string]string `json:"itemSpecifics,omitempty"`
}

type ShopifyListing struct {
	ProductType string   `json:"productType,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	Collections []string `json:"collections,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type MarketingAssets struct {
	EmailTemplates    []EmailTemplate   `json:"emailTemplates,omitempty"`
	NurturingSequence []NurturingStep   `json:"nurturingSequence,omitempty"`
	SocialSnippets    map[string]string `json:"socialSnippets,omitempty"`
}

type EmailTemplate struct {
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body,omitempty"`
}

type NurturingStep struct {
	Day     int    `json:"day"`
	Subject string `json:"subject"`
	Body    string `json:"body,omitempty"`
}

type MarketAnalysis struct {
	Size          string      `json:"size,omitempty"`
	Competitors   Competitors `json:"competitors"`
	Trends        []string    `json:"trends,omitempty"`
	Opportunities []string    `json:"opportunities,omitempty"`
	Threats       []string    `json:"threats,omitempty"`
}

type Competitors struct {
	Direct   []string `json:"direct,omitempty"`
	Indirect []string `json:"indirect,omitempty"`
}

// GeneratedContent is the envelope returned by one generation. At most one
// of Social and Marketplace is set, matching the requested mode.
type GeneratedContent struct {
	ImageAnalysis *ImageAnalysis      `json:"imageAnalysis"`
	Social        *SocialContent      `json:"social,omitempty"`
	Marketplace   *MarketplaceContent `json:"marketplace,omitempty"`
}

// Mode reports which generator produced the envelope.
func (g *GeneratedContent) Mode() Mode {
	switch {
	case g.Social != nil:
		return ModeSocial
	case g.Marketplace != nil:
		return ModeMarketplace
	}
	return ModeNone
}
