package generator

import (
	"context"
	"fmt"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/llm"
	"github.com/rs/zerolog/log"
)

// State is a pipeline stage.
type State string

const (
	StateIdle                  State = "idle"
	StateAnalyzing             State = "analyzing"
	StateSocialGenerating      State = "social_generating"
	StateMarketplaceGenerating State = "marketplace_generating"
	StateDone                  State = "done"
	StateFailed                State = "failed"
)

// StateFunc observes pipeline transitions. It is called synchronously on the
// generating goroutine.
type StateFunc func(State)

// Orchestrator runs analysis followed by the generator selected by the mode.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	analyzer    Analyzer
	social      SocialWriter
	marketplace ListingWriter
}

func NewOrchestrator(analyzer Analyzer, social SocialWriter, marketplace ListingWriter) *Orchestrator {
	return &Orchestrator{analyzer: analyzer, social: social, marketplace: marketplace}
}

// New wires the default analyzer and generators around one chat client.
func New(client llm.ChatClient, retrier *llm.Retrier, settings Settings) *Orchestrator {
	return NewOrchestrator(
		NewImageAnalyzer(client, retrier, settings),
		NewSocialGenerator(client, retrier, settings),
		NewMarketplaceGenerator(client, retrier, settings),
	)
}

// Generate runs the whole pipeline.
func (o *Orchestrator) Generate(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.GeneratedContent, error) {
	return o.GenerateWithProgress(ctx, img, opts, nil)
}

// GenerateWithProgress runs the whole pipeline and reports each transition
// to onState. Options are normalized and validated before any upstream
// call. A generation failure discards the analysis.
func (o *Orchestrator) GenerateWithProgress(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions, onState StateFunc) (*content.GeneratedContent, error) {
	state := StateIdle
	transition := func(next State) {
		log.Debug().
			Str("userId", opts.UserID).
			Str("from", string(state)).
			Str("to", string(next)).
			Msg("generation state")
		state = next
		if onState != nil {
			onState(next)
		}
	}

	opts = opts.Normalized()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	transition(StateAnalyzing)
	analysis, err := o.analyzer.Analyze(ctx, img, opts)
	if err != nil {
		transition(StateFailed)
		return nil, fmt.Errorf("analyze image: %w", err)
	}

	result := &content.GeneratedContent{ImageAnalysis: analysis}

	switch opts.Mode {
	case content.ModeSocial:
		transition(StateSocialGenerating)
		social, err := o.social.Generate(ctx, analysis, opts)
		if err != nil {
			transition(StateFailed)
			return nil, fmt.Errorf("generate social content: %w", err)
		}
		result.Social = social
	case content.ModeMarketplace:
		transition(StateMarketplaceGenerating)
		listing, err := o.marketplace.Generate(ctx, analysis, opts)
		if err != nil {
			transition(StateFailed)
			return nil, fmt.Errorf("generate marketplace content: %w", err)
		}
		result.Marketplace = listing
	}

	transition(StateDone)
	return result, nil
}
