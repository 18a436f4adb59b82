package generator

import (
	"testing"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/llm"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1}

const analysisReply = "Here is the analysis:\n```json\n" + `{
  "categories": ["Footwear", "Sneakers"],
  "tags": ["leather", "white"],
  "description": "White leather sneakers on a wooden floor.",
  "visualImpact": {"composition": "centered", "style": "minimal", "colors": ["white", "beige"]},
  "technicalDetails": {"materials": ["leather", "rubber"], "dimensions": "", "specifications": {"closure": "laces", "weight": 350}},
  "marketAnalysis": {"targetAudience": ["commuters"], "pricePoint": "Mid-Range", "uniqueSellingPoints": ["clean design"]}
}` + "\n```"

const socialReply = `{
  "sentiment": {"positive": 70, "neutral": 20, "negative": 20},
  "hashtags": {"recommended": ["#sneakers"], "niche": ["#whiteleather"], "trending": ["#ootd"]},
  "content": {
    "common": {"title": "Fresh whites", "description": "Clean sneakers for every day."},
    "instagram": {"caption": "Step into spring", "hashtags": ["#sneakers", "#spring"]},
    "facebook": {"post": "Our new sneakers are here."},
    "twitter": {"tweet": "New whites just dropped", "hashtags": ["#kicks"]}
  }
}`

const marketplaceReply = `{
  title: "White Leather Sneakers",
  description: "Minimal white leather sneakers with rubber soles.",
  features: ["Full grain leather", "Cushioned insole",],
  specifications: {"material": "leather", "sizes": "36-46"},
  pricing: {regular: "$89.99", sale: 74.5, currency: "USD", suggestedRange: {min: 70, max: 95}, competitiveTiers: [{name: "entry", price: 59}]},
  seo: {title: "White leather sneakers", keywords: ["white sneakers", "leather sneakers"]},
  marketingPoints: ["Goes with everything"],
  platformSpecific: {
    amazon: {bulletPoints: ["Leather upper", "Rubber sole"], searchTerms: ["white shoes"]},
    etsy: {tags: ["handmade"]}
  },
  marketingAssets: {emailTemplates: [{name: "launch", subject: "Meet your new sneakers", body: "..."}], nurturingSequence: [{day: 3, subject: "Still thinking?"}], socialSnippets: {instagram: "Fresh pair"}},
  marketAnalysis: {size: "large", competitors: {direct: ["Common Projects"], indirect: ["Converse"]}, trends: ["minimalism"]},
  media: {"imageAlt": "white sneakers", "videoIdeas": ["unboxing"]},
}`

func testImage(t *testing.T) *content.UploadedImage {
	t.Helper()
	img, err := content.NewUploadedImage(pngBytes, "test.png")
	require.NoError(t, err)
	return img
}

func testRetrier() *llm.Retrier {
	return llm.NewRetrier(3, 0)
}

func testAnalysis() *content.ImageAnalysis {
	return &content.ImageAnalysis{
		Categories:  []string{"Footwear"},
		Tags:        []string{"leather"},
		Description: "White leather sneakers.",
	}
}
