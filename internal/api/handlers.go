package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/storage"
)

const (
	maxHistoryLimit = 100
	// Room for the options part and multipart framing on top of the image.
	multipartOverhead = 1 << 20
)

// GenerateResponse is returned by POST /v1/generate.
type GenerateResponse struct {
	HistoryID string                    `json:"historyId,omitempty"`
	Content   *content.GeneratedContent `json:"content"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Generate accepts a multipart form with an "image" file and an optional
// "options" JSON part. Options not sent are taken from the user's stored
// preferences. A request superseded by a newer one from the same user gets
// 409 and its result is dropped.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, content.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONErrorResponse(w, http.StatusRequestEntityTooLarge, "too_large", "image is too large")
			return
		}
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	img, err := readImage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	prefs, err := s.store.GetPreferences(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	opts := storage.OptionsFromPreferences(userID, prefs)
	if raw := r.FormValue("options"); raw != "" {
		// Fields present in the JSON override the stored preferences
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			writeError(w, fmt.Errorf("%w: invalid options: %v", content.ErrValidation, err))
			return
		}
	}
	opts.UserID = userID

	run := s.runs.Start(r.Context(), userID)
	log.Info().
		Str("userId", userID).
		Uint64("run", run.ID).
		Str("mode", string(opts.Mode)).
		Msg("starting generation")

	gc, err := s.generator.Generate(run.Context(), img, opts)
	if !s.runs.Finish(userID, run) {
		log.Info().Str("userId", userID).Uint64("run", run.ID).Err(err).Msg("discarding stale generation result")
		writeJSONErrorResponse(w, http.StatusConflict, "superseded", "a newer generation was started")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	resp := GenerateResponse{Content: gc}
	entry, err := s.store.SaveHistory(userID, gc)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to save history")
	} else {
		resp.HistoryID = entry.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func readImage(r *http.Request) (*content.UploadedImage, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, fmt.Errorf("%w: image is required", content.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", content.ErrValidation, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, content.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return content.NewUploadedImage(data, header.Filename)
}

func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.store.GetPreferences(userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// PutPreferences updates the keys present in the body. An empty value
// clears a key.
func (s *Server) PutPreferences(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	normalized := make(map[string]string, len(body))
	for key, value := range body {
		v, err := normalizePreference(key, value)
		if err != nil {
			writeError(w, err)
			return
		}
		normalized[key] = v
	}
	for key, value := range normalized {
		if err := s.store.SetPreference(userID, key, value); err != nil {
			writeError(w, err)
			return
		}
	}

	prefs, err := s.store.GetPreferences(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// normalizePreference checks a value against its key and returns the stored
// form.
func normalizePreference(key, value string) (string, error) {
	if !slices.Contains(storage.PreferenceKeys, key) {
		return "", fmt.Errorf("%w: unknown preference %q", content.ErrValidation, key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	switch key {
	case storage.PrefLanguage:
		return content.NormalizeLanguage(value), nil
	case storage.PrefTone:
		tone, ok := content.ParseTone(value)
		if !ok {
			return "", fmt.Errorf("%w: unknown tone %q", content.ErrValidation, value)
		}
		return string(tone), nil
	case storage.PrefMode:
		mode, ok := content.ParseMode(value)
		if !ok {
			return "", fmt.Errorf("%w: unknown mode %q", content.ErrValidation, value)
		}
		return string(mode), nil
	case storage.PrefPlatforms:
		platforms, err := content.ParsePlatforms(value)
		if err != nil {
			return "", err
		}
		return storage.FormatPlatforms(platforms), nil
	case storage.PrefMarketplace:
		m, ok := content.ParseMarketplace(value)
		if !ok {
			return "", fmt.Errorf("%w: unknown marketplace %q", content.ErrValidation, value)
		}
		return string(m), nil
	case storage.PrefCurrency:
		code, ok := content.ParseCurrency(value)
		if !ok {
			return "", fmt.Errorf("%w: %q is not an ISO 4217 currency code", content.ErrValidation, value)
		}
		return code, nil
	}
	return value, nil
}

func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.store.ListHistory(userIDFrom(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []storage.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.GetHistory(userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteHistory(userIDFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
