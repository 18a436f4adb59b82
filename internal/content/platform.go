package content

import (
	"fmt"
	"slices"
	"strings"
)

// Platform identifies a social channel.
type Platform string

const (
	Instagram Platform = "instagram"
	Facebook  Platform = "facebook"
	Twitter   Platform = "twitter"
	LinkedIn  Platform = "linkedin"
	TikTok    Platform = "tiktok"
	Pinterest Platform = "pinterest"
	YouTube   Platform = "youtube"
	Threads   Platform = "threads"
	Snapchat  Platform = "snapchat"
	Medium    Platform = "medium"
	Email     Platform = "email"
)

// SocialPlatforms lists every supported social platform.
var SocialPlatforms = []Platform{
	Instagram, Facebook, Twitter, LinkedIn, TikTok, Pinterest,
	YouTube, Threads, Snapchat, Medium, Email,
}

// primaryFields maps each platform to the field that must be present and
// non-empty for its content to be kept.
var primaryFields = map[Platform]string{
	Instagram: "caption",
	Facebook:  "post",
	Twitter:   "tweet",
	LinkedIn:  "post",
	TikTok:    "caption",
	Pinterest: "description",
	YouTube:   "title",
	Threads:   "post",
	Snapchat:  "caption",
	Medium:    "title",
	Email:     "subject",
}

// Valid reports whether p is a supported social platform.
func (p Platform) Valid() bool {
	_, ok := primaryFields[p]
	return ok
}

// PrimaryField returns the name of the platform's required content field.
func (p Platform) PrimaryField() string {
	return primaryFields[p]
}

// ParsePlatforms parses a comma or space separated platform list.
func ParsePlatforms(s string) ([]Platform, error) {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	var platforms []Platform
	for _, f := range fields {
		p := Platform(f)
		if f == "x" {
			p = Twitter
		}
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrValidation, f)
		}
		if !slices.Contains(platforms, p) {
			platforms = append(platforms, p)
		}
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no platforms given", ErrValidation)
	}
	return platforms, nil
}

// Marketplace identifies an e-commerce listing channel.
type Marketplace string

const (
	Amazon  Marketplace = "amazon"
	Etsy    Marketplace = "etsy"
	Ebay    Marketplace = "ebay"
	Shopify Marketplace = "shopify"
)

// Marketplaces lists every supported marketplace.
var Marketplaces = []Marketplace{Amazon, Etsy, Ebay, Shopify}

// Valid reports whether m is a supported marketplace.
func (m Marketplace) Valid() bool {
	return slices.Contains(Marketplaces, m)
}

// ParseMarketplace parses a marketplace name case-insensitively.
func ParseMarketplace(s string) (Marketplace, bool) {
	m := Marketplace(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}
