package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/generator"
	"github.com/raine/copywriter-bot/internal/llm"
	"github.com/raine/copywriter-bot/internal/storage"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

const testUser = "user-1"

type fakeGenerator struct {
	GenerateFunc func(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.GeneratedContent, error)

	mu   sync.Mutex
	opts []content.GenerationOptions
}

func (f *fakeGenerator) Generate(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.GeneratedContent, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	return f.GenerateFunc(ctx, img, opts)
}

func (f *fakeGenerator) lastOptions() content.GenerationOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts[len(f.opts)-1]
}

func socialResult() *content.GeneratedContent {
	return &content.GeneratedContent{
		ImageAnalysis: &content.ImageAnalysis{Description: "Red sneakers", Categories: []string{"Footwear"}},
		Social: &content.SocialContent{
			Content: content.PlatformContent{
				Instagram: &content.InstagramContent{Caption: "Step up"},
			},
		},
	}
}

func setup(t *testing.T) (http.Handler, *fakeGenerator, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gen := &fakeGenerator{
		GenerateFunc: func(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.GeneratedContent, error) {
			return socialResult(), nil
		},
	}
	srv := NewServer(store, gen, nil)
	return srv.Router([]string{"https://app.example.com"}), gen, store
}

func newGenerateRequest(t *testing.T, image []byte, options string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	if options != "" {
		require.NoError(t, mw.WriteField("options", options))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(UserIDHeader, testUser)
	return req
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(UserIDHeader, testUser)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	h, _, _ := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _, _ := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMissingUserID(t *testing.T) {
	h, _, _ := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/preferences", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "unauthorized", decode(t, w)["error"])
}

func TestCORSPreflight(t *testing.T) {
	h, _, _ := setup(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/generate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", UserIDHeader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerate_SavesHistory(t *testing.T) {
	h, gen, store := setup(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newGenerateRequest(t, pngHeader, `{"mode":"social","platforms":["instagram"],"language":"English"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Content.Social)
	assert.Equal(t, "Step up", resp.Content.Social.Content.Instagram.Caption)
	assert.NotEmpty(t, resp.HistoryID)

	opts := gen.lastOptions()
	assert.Equal(t, content.ModeSocial, opts.Mode)
	assert.Equal(t, []content.Platform{content.Instagram}, opts.Platforms)
	assert.Equal(t, testUser, opts.UserID)

	entry, err := store.GetHistory(testUser, resp.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, content.ModeSocial, entry.Mode)
}

func TestGenerate_OptionsDefaultToPreferences(t *testing.T) {
	h, gen, store := setup(t)
	require.NoError(t, store.SetPreference(testUser, storage.PrefLanguage, "Finnish"))
	require.NoError(t, store.SetPreference(testUser, storage.PrefTone, "casual"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newGenerateRequest(t, pngHeader, `{"tone":"luxury"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	opts := gen.lastOptions()
	assert.Equal(t, "Finnish", opts.Language)
	assert.Equal(t, content.ToneLuxury, opts.Tone)
}

func TestGenerate_RejectsInvalidInput(t *testing.T) {
	h, gen, _ := setup(t)

	tests := []struct {
		name    string
		image   []byte
		options string
	}{
		{"missing image", nil, ""},
		{"not an image", []byte("hello world"), ""},
		{"malformed options", pngHeader, `{"mode":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, newGenerateRequest(t, tt.image, tt.options))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation_error", decode(t, w)["error"])
		})
	}
	assert.Empty(t, gen.opts)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: language is required", content.ErrValidation), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("analyze: %w", llm.NewStatusError(429, "slow down")), http.StatusTooManyRequests, "rate_limited"},
		{fmt.Errorf("analyze: %w", llm.NewStatusError(503, "")), http.StatusBadGateway, "upstream_error"},
		{fmt.Errorf("%w: %w", generator.ErrGenerationFailed, llm.ErrMalformedResponse), http.StatusBadGateway, "malformed_response"},
		{fmt.Errorf("%w: no description", generator.ErrAnalysisFailed), http.StatusBadGateway, "analysis_failed"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h, gen, store := setup(t)
			gen.GenerateFunc = func(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.GeneratedContent, error) {
				return nil, tt.err
			}

			w := httptest.NewRecorder()
			h.ServeHTTP(w, newGenerateRequest(t, pngHeader, `{"language":"English"}`))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["error"])

			entries, err := store.ListHistory(testUser, 10)
			require.NoError(t, err)
			assert.Empty(t, entries, "failed generations are not saved")
		})
	}
}

func TestGenerate_NewerRequestSupersedesOlder(t *testing.T) {
	h, gen, store := setup(t)

	var calls atomic.Int32
	started := make(chan struct{})
	gen.GenerateFunc = func(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions) (*content.GeneratedContent, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return socialResult(), nil
	}

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(first, newGenerateRequest(t, pngHeader, `{"language":"English"}`))
	}()
	<-started

	second := httptest.NewRecorder()
	h.ServeHTTP(second, newGenerateRequest(t, pngHeader, `{"language":"English"}`))
	<-done

	assert.Equal(t, http.StatusConflict, first.Code)
	assert.Equal(t, "superseded", decode(t, first)["error"])
	assert.Equal(t, http.StatusOK, second.Code)

	entries, err := store.ListHistory(testUser, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPreferences(t *testing.T) {
	h, _, _ := setup(t)

	w := doJSON(t, h, http.MethodGet, "/v1/preferences", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w))

	w = doJSON(t, h, http.MethodPut, "/v1/preferences", `{"language":"fi","tone":"Casual","platforms":"x, instagram","currency":"eur"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs := decode(t, w)
	assert.Equal(t, "Finnish", prefs["language"])
	assert.Equal(t, "casual", prefs["tone"])
	assert.Equal(t, "twitter,instagram", prefs["platforms"])
	assert.Equal(t, "EUR", prefs["currency"])

	w = doJSON(t, h, http.MethodPut, "/v1/preferences", `{"tone":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "tone")
}

func TestPreferences_Invalid(t *testing.T) {
	h, _, store := setup(t)

	for _, body := range []string{`{"color":"red"}`, `{"tone":"grumpy"}`, `{"platforms":"myspace"}`, `{"platform":"craigslist"}`, `{"currency":"EURO"}`, `{"currency":"$"}`} {
		w := doJSON(t, h, http.MethodPut, "/v1/preferences", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := doJSON(t, h, http.MethodPut, "/v1/preferences", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	prefs, err := store.GetPreferences(testUser)
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestPreferences_CurrencyFeedsGenerate(t *testing.T) {
	h, gen, _ := setup(t)

	w := doJSON(t, h, http.MethodPut, "/v1/preferences", `{"currency":"EURO"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPut, "/v1/preferences", `{"currency":" sek "}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SEK", decode(t, w)["currency"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, newGenerateRequest(t, pngHeader, `{"mode":"social","platforms":["instagram"],"language":"English"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SEK", gen.lastOptions().Currency)
}

func TestHistory(t *testing.T) {
	h, _, store := setup(t)

	entry, err := store.SaveHistory(testUser, socialResult())
	require.NoError(t, err)
	_, err = store.SaveHistory("someone-else", socialResult())
	require.NoError(t, err)

	w := doJSON(t, h, http.MethodGet, "/v1/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []storage.HistoryEntry `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, entry.ID, list.Items[0].ID)

	w = doJSON(t, h, http.MethodGet, "/v1/history?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodGet, "/v1/history/"+entry.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got storage.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.Content)
	assert.Equal(t, "Red sneakers", got.Content.ImageAnalysis.Description)

	w = doJSON(t, h, http.MethodDelete, "/v1/history/"+entry.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/v1/history/"+entry.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["error"])

	w = doJSON(t, h, http.MethodDelete, "/v1/history/"+entry.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
