package generator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func TestOrchestrator_SocialEndToEnd(t *testing.T) {
	client := &llm.MockChatClient{Replies: []string{
		analysisReply,
		`{"content": {"instagram": {"caption": "Weekend ready", "hashtags": ["#sneakers"]}}}`,
	}}
	o := New(client, testRetrier(), DefaultSettings)
	rec := &stateRecorder{}

	got, err := o.GenerateWithProgress(context.Background(), testImage(t), content.GenerationOptions{
		Language:  "English",
		Mode:      content.ModeSocial,
		Platforms: []content.Platform{content.Instagram},
		Tone:      content.ToneCasual,
	}, rec.record)
	require.NoError(t, err)

	assert.Equal(t, []State{StateAnalyzing, StateSocialGenerating, StateDone}, rec.states)
	assert.Equal(t, 2, client.Calls())
	require.NotNil(t, got.ImageAnalysis)
	assert.Nil(t, got.Marketplace)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "marketplace")

	social := raw["social"].(map[string]any)
	assert.Equal(t, map[string]any{
		"instagram": map[string]any{
			"caption":  "Weekend ready",
			"hashtags": []any{"#sneakers"},
		},
	}, social["content"])
}

func TestOrchestrator_EmptyLanguageFailsBeforeNetwork(t *testing.T) {
	client := &llm.MockChatClient{Replies: []string{analysisReply, socialReply}}
	o := New(client, testRetrier(), DefaultSettings)
	rec := &stateRecorder{}

	got, err := o.GenerateWithProgress(context.Background(), testImage(t), content.GenerationOptions{
		Language:  "",
		Mode:      content.ModeSocial,
		Platforms: []content.Platform{content.Instagram},
	}, rec.record)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, content.ErrValidation)
	assert.Equal(t, 0, client.Calls())
	assert.Empty(t, rec.states)
}

func TestOrchestrator_MissingImage(t *testing.T) {
	client := &llm.MockChatClient{}
	o := New(client, testRetrier(), DefaultSettings)

	_, err := o.Generate(context.Background(), nil, content.GenerationOptions{Language: "English"})
	assert.ErrorIs(t, err, content.ErrValidation)
	assert.Equal(t, 0, client.Calls())
}

func TestOrchestrator_AnalysisOnly(t *testing.T) {
	client := &llm.MockChatClient{Replies: []string{analysisReply}}
	o := New(client, testRetrier(), DefaultSettings)
	rec := &stateRecorder{}

	got, err := o.GenerateWithProgress(context.Background(), testImage(t), content.GenerationOptions{Language: "fi"}, rec.record)
	require.NoError(t, err)
	assert.Equal(t, []State{StateAnalyzing, StateDone}, rec.states)
	assert.NotNil(t, got.ImageAnalysis)
	assert.Nil(t, got.Social)
	assert.Nil(t, got.Marketplace)
	assert.Equal(t, content.ModeNone, got.Mode())

	// language tag is expanded before it reaches the prompt
	assert.Contains(t, client.Requests[0].Messages[2].Text(), "Finnish")
}

func TestOrchestrator_MarketplaceEndToEnd(t *testing.T) {
	client := &llm.MockChatClient{Replies: []string{analysisReply, marketplaceReply}}
	o := New(client, testRetrier(), DefaultSettings)
	rec := &stateRecorder{}

	got, err := o.GenerateWithProgress(context.Background(), testImage(t), content.GenerationOptions{
		Language: "English",
		Mode:     content.ModeMarketplace,
		Category: "electronics",
		Platform: content.Amazon,
	}, rec.record)
	require.NoError(t, err)

	assert.Equal(t, []State{StateAnalyzing, StateMarketplaceGenerating, StateDone}, rec.states)
	assert.Nil(t, got.Social)
	require.NotNil(t, got.Marketplace)
	assert.Equal(t, []content.Marketplace{content.Amazon}, got.Marketplace.PlatformSpecific.Marketplaces())
	assert.Equal(t, content.ModeMarketplace, got.Mode())
}

func TestOrchestrator_GenerationFailureDiscardsAnalysis(t *testing.T) {
	client := &llm.MockChatClient{Replies: []string{analysisReply, `{"content": {}}`}}
	o := New(client, testRetrier(), DefaultSettings)
	rec := &stateRecorder{}

	got, err := o.GenerateWithProgress(context.Background(), testImage(t), content.GenerationOptions{
		Language:  "English",
		Mode:      content.ModeSocial,
		Platforms: []content.Platform{content.Instagram},
	}, rec.record)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, []State{StateAnalyzing, StateSocialGenerating, StateFailed}, rec.states)
}

func TestOrchestrator_AnalysisFailureStopsPipeline(t *testing.T) {
	client := &llm.MockChatClient{Errors: []error{
		llm.NewStatusError(500, ""),
		llm.NewStatusError(500, ""),
		llm.NewStatusError(500, ""),
	}}
	o := New(client, testRetrier(), DefaultSettings)
	rec := &stateRecorder{}

	_, err := o.GenerateWithProgress(context.Background(), testImage(t), content.GenerationOptions{
		Language:  "English",
		Mode:      content.ModeSocial,
		Platforms: []content.Platform{content.Instagram},
	}, rec.record)

	assert.ErrorIs(t, err, llm.ErrUpstreamServer)
	var retryErr *llm.RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, 3, retryErr.Attempts)
	assert.Equal(t, 3, client.Calls())
	assert.Equal(t, []State{StateAnalyzing, StateFailed}, rec.states)
}

func TestOrchestrator_ConcurrentRequestsShareNothing(t *testing.T) {
	client := &llm.MockChatClient{
		CompleteFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			if len(req.Messages) == 3 {
				return &llm.ChatResponse{Content: analysisReply}, nil
			}
			return &llm.ChatResponse{Content: socialReply}, nil
		},
	}
	o := New(client, testRetrier(), DefaultSettings)

	img := testImage(t)
	platforms := [][]content.Platform{{content.Instagram}, {content.Twitter}, {content.Facebook}}
	results := make([]*content.GeneratedContent, len(platforms))
	var wg sync.WaitGroup
	for i, p := range platforms {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.Generate(context.Background(), img, content.GenerationOptions{
				Language: "English", Mode: content.ModeSocial, Platforms: p,
			})
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	for i, p := range platforms {
		require.NotNil(t, results[i])
		assert.Equal(t, p, results[i].Social.Content.Platforms())
	}
}
