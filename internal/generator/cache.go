package generator

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/rs/zerolog/log"
)

// AnalysisCache persists analyses by key.
type AnalysisCache interface {
	GetAnalysis(key string) (*content.ImageAnalysis, error)
	SetAnalysis(key string, analysis *content.ImageAnalysis) error
}

// CachedAnalyzer wraps an Analyzer with a persistent cache.
type CachedAnalyzer struct {
	inner Analyzer
	cache AnalysisCache
}

// NewCachedAnalyzer creates a cached analyzer. A nil cache disables caching.
func NewCachedAnalyzer(inner Analyzer, cache AnalysisCache) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, cache: cache}
}

// analysisKey hashes the image and the output language, since the analysis
// text is written in that language.
func analysisKey(img *content.UploadedImage, language string) string {
	h := sha256.New()
	// Length prefix keeps image and language boundaries unambiguous
	binary.Write(h, binary.LittleEndian, int64(len(img.Data)))
	h.Write(img.Data)
	h.Write([]byte(language))
	return hex.EncodeToString(h.Sum(nil))
}

// Analyze implements Analyzer with caching. Cache errors are logged and
// never fail the request.
func (c *CachedAnalyzer) Analyze(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.ImageAnalysis, error) {
	if c.cache == nil || img == nil {
		return c.inner.Analyze(ctx, img, opts)
	}

	key := analysisKey(img, opts.Language)

	cached, err := c.cache.GetAnalysis(key)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check analysis cache")
	} else if cached != nil {
		log.Debug().Str("hash", key[:16]).Msg("analysis cache hit")
		return cached, nil
	}

	analysis, err := c.inner.Analyze(ctx, img, opts)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetAnalysis(key, analysis); err != nil {
		log.Warn().Err(err).Msg("failed to cache analysis")
	} else {
		log.Debug().Str("hash", key[:16]).Msg("cached analysis")
	}
	return analysis, nil
}
