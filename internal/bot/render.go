package bot

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/raine/copywriter-bot/internal/content"
)

// section builds one Telegram Markdown message. Every value added through it
// is escaped.
type section struct {
	b strings.Builder
}

func (s *section) title(t string) {
	if s.b.Len() > 0 {
		s.b.WriteString("\n")
	}
	fmt.Fprintf(&s.b, "*%s*\n", escapeMarkdown(t))
}

func (s *section) text(v string) {
	if v = strings.TrimSpace(v); v != "" {
		s.b.WriteString(escapeMarkdown(v))
		s.b.WriteString("\n")
	}
}

func (s *section) field(label, v string) {
	if v = strings.TrimSpace(v); v != "" {
		fmt.Fprintf(&s.b, "_%s:_ %s\n", escapeMarkdown(label), escapeMarkdown(v))
	}
}

func (s *section) list(label string, vs []string) {
	if len(vs) > 0 {
		s.field(label, strings.Join(vs, ", "))
	}
}

func (s *section) bullets(label string, vs []string) {
	if len(vs) == 0 {
		return
	}
	fmt.Fprintf(&s.b, "_%s:_\n", label)
	for _, v := range vs {
		fmt.Fprintf(&s.b, "• %s\n", escapeMarkdown(v))
	}
}

func (s *section) kv(label string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(&s.b, "_%s:_\n", label)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(&s.b, "• %s: %s\n", escapeMarkdown(k), escapeMarkdown(m[k]))
	}
}

func (s *section) String() string {
	return strings.TrimSpace(s.b.String())
}

// renderContent formats a generation result as Telegram messages: the
// analysis first, then one message per generated block.
func renderContent(gc *content.GeneratedContent) []string {
	var out []string
	if gc.ImageAnalysis != nil {
		out = append(out, renderAnalysis(gc.ImageAnalysis))
	}
	if gc.Social != nil {
		out = append(out, renderSocial(gc.Social)...)
	}
	if gc.Marketplace != nil {
		out = append(out, renderMarketplace(gc.Marketplace)...)
	}

	var messages []string
	for _, m := range out {
		if m != "" {
			messages = append(messages, splitMessage(m, maxMessageLength)...)
		}
	}
	return messages
}

func renderAnalysis(a *content.ImageAnalysis) string {
	var s section
	s.title(TitleAnalysis)
	s.text(a.Description)
	s.list("Categories", a.Categories)
	s.list("Tags", a.Tags)
	s.field("Style", a.VisualImpact.Style)
	s.field("Composition", a.VisualImpact.Composition)
	s.list("Colors", a.VisualImpact.Colors)
	s.list("Materials", a.TechnicalDetails.Materials)
	s.field("Dimensions", a.TechnicalDetails.Dimensions)
	s.list("Target audience", a.MarketAnalysis.TargetAudience)
	s.field("Price point", string(a.MarketAnalysis.PricePoint))
	s.bullets("Selling points", a.MarketAnalysis.UniqueSellingPoints)
	return s.String()
}

func renderSocial(sc *content.SocialContent) []string {
	var head section
	head.title(TitleSocial)
	if c := sc.Content.Common; c != nil {
		head.field("Title", c.Title)
		head.text(c.Description)
	}
	if st := sc.Sentiment; st != nil {
		head.field("Sentiment", fmt.Sprintf("%s%% positive, %s%% neutral, %s%% negative",
			formatNumber(st.Positive), formatNumber(st.Neutral), formatNumber(st.Negative)))
	}
	if h := sc.Hashtags; h != nil {
		head.list("Recommended hashtags", h.Recommended)
		head.list("Niche hashtags", h.Niche)
		head.list("Trending hashtags", h.Trending)
	}

	out := []string{head.String()}
	for _, p := range sc.Content.Platforms() {
		out = append(out, renderPlatform(p, sc.Content))
	}
	return out
}

func renderPlatform(p content.Platform, c content.PlatformContent) string {
	var s section
	s.title(platformLabel(p))
	switch p {
	case content.Instagram:
		s.text(c.Instagram.Caption)
		s.list("Hashtags", c.Instagram.Hashtags)
		s.field("Call to action", c.Instagram.CallToAction)
	case content.Facebook:
		s.field("Headline", c.Facebook.Headline)
		s.text(c.Facebook.Post)
		s.field("Call to action", c.Facebook.CallToAction)
	case content.Twitter:
		s.text(c.Twitter.Tweet)
		s.list("Hashtags", c.Twitter.Hashtags)
		s.bullets("Thread", c.Twitter.Thread)
	case content.LinkedIn:
		s.field("Headline", c.LinkedIn.Headline)
		s.text(c.LinkedIn.Post)
		s.list("Hashtags", c.LinkedIn.Hashtags)
	case content.TikTok:
		s.field("Hook", c.TikTok.Hook)
		s.text(c.TikTok.Caption)
		s.list("Hashtags", c.TikTok.Hashtags)
	case content.Pinterest:
		s.field("Title", c.Pinterest.Title)
		s.text(c.Pinterest.Description)
		s.list("Keywords", c.Pinterest.Keywords)
	case content.YouTube:
		s.field("Title", c.YouTube.Title)
		s.text(c.YouTube.Description)
		s.list("Tags", c.YouTube.Tags)
	case content.Threads:
		s.text(c.Threads.Post)
		s.list("Hashtags", c.Threads.Hashtags)
	case content.Snapchat:
		s.text(c.Snapchat.Caption)
		s.list("Sticker ideas", c.Snapchat.StickerIdeas)
	case content.Medium:
		s.field("Title", c.Medium.Title)
		s.field("Subtitle", c.Medium.Subtitle)
		s.text(c.Medium.Intro)
		s.list("Tags", c.Medium.Tags)
	case content.Email:
		s.field("Subject", c.Email.Subject)
		s.field("Preheader", c.Email.Preheader)
		s.text(c.Email.Body)
		s.field("Call to action", c.Email.CallToAction)
	}
	return s.String()
}

func renderMarketplace(m *content.MarketplaceContent) []string {
	var listing section
	listing.title(TitleMarketplace)
	listing.field("Title", m.Title)
	listing.text(m.Description)
	listing.bullets("Features", m.Features)
	listing.kv("Specifications", m.Specifications)
	if p := m.Pricing; p != nil {
		listing.field("Price", formatPricing(p))
		if r := p.SuggestedRange; r != nil {
			listing.field("Suggested range", fmt.Sprintf("%s-%s %s", formatNumber(r.Min), formatNumber(r.Max), p.Currency))
		}
		for _, tier := range p.CompetitiveTiers {
			listing.field(tier.Name, strings.TrimSpace(formatNumber(tier.Price)+" "+p.Currency+" "+tier.Description))
		}
	}
	listing.bullets("Marketing points", m.MarketingPoints)
	out := []string{listing.String()}

	var extra section
	if seo := m.SEO; seo != nil {
		extra.title("SEO")
		extra.field("Title", seo.Title)
		extra.field("Description", seo.Description)
		extra.list("Keywords", seo.Keywords)
	}
	renderListing(&extra, m.PlatformSpecific)
	if ma := m.MarketAnalysis; ma != nil {
		extra.title("Market")
		extra.field("Size", ma.Size)
		extra.list("Direct competitors", ma.Competitors.Direct)
		extra.list("Indirect competitors", ma.Competitors.Indirect)
		extra.bullets("Trends", ma.Trends)
		extra.bullets("Opportunities", ma.Opportunities)
		extra.bullets("Threats", ma.Threats)
	}
	if s := extra.String(); s != "" {
		out = append(out, s)
	}

	if a := m.MarketingAssets; a != nil {
		var assets section
		assets.title("Marketing assets")
		for _, t := range a.EmailTemplates {
			assets.field("Email", strings.TrimSpace(t.Name+": "+t.Subject))
			assets.text(t.Body)
		}
		for _, step := range a.NurturingSequence {
			assets.field("Day "+strconv.Itoa(step.Day), step.Subject)
		}
		assets.kv("Social snippets", a.SocialSnippets)
		out = append(out, assets.String())
	}
	return out
}

func renderListing(s *section, l content.PlatformListings) {
	switch {
	case l.Amazon != nil:
		s.title("Amazon")
		s.bullets("Bullet points", l.Amazon.BulletPoints)
		s.list("Search terms", l.Amazon.SearchTerms)
		s.field("Browse node", l.Amazon.BrowseNode)
	case l.Etsy != nil:
		s.title("Etsy")
		s.list("Tags", l.Etsy.Tags)
		s.list("Materials", l.Etsy.Materials)
		s.field("Occasion", l.Etsy.Occasion)
		s.field("Style", l.Etsy.Style)
	case l.Ebay != nil:
		s.title("eBay")
		s.field("Condition", l.Ebay.Condition)
		s.field("Format", l.Ebay.ListingFormat)
		s.kv("Item specifics", l.Ebay.ItemSpecifics)
	case l.Shopify != nil:
		s.title("Shopify")
		s.field("Product type", l.Shopify.ProductType)
		s.field("Vendor", l.Shopify.Vendor)
		s.list("Collections", l.Shopify.Collections)
		s.list("Tags", l.Shopify.Tags)
	}
}

func formatPricing(p *content.Pricing) string {
	var parts []string
	if p.Regular > 0 {
		parts = append(parts, formatNumber(p.Regular)+" "+p.Currency)
	}
	if p.Sale > 0 {
		parts = append(parts, "sale "+formatNumber(p.Sale))
	}
	if p.MSRP > 0 {
		parts = append(parts, "MSRP "+formatNumber(p.MSRP))
	}
	return strings.Join(parts, ", ")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var platformLabels = map[content.Platform]string{
	content.Instagram: "Instagram",
	content.Facebook:  "Facebook",
	content.Twitter:   "X / Twitter",
	content.LinkedIn:  "LinkedIn",
	content.TikTok:    "TikTok",
	content.Pinterest: "Pinterest",
	content.YouTube:   "YouTube",
	content.Threads:   "Threads",
	content.Snapchat:  "Snapchat",
	content.Medium:    "Medium",
	content.Email:     "Email",
}

func platformLabel(p content.Platform) string {
	if label, ok := platformLabels[p]; ok {
		return label
	}
	return string(p)
}
