package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/generator"
	"github.com/raine/copywriter-bot/internal/llm"
	"github.com/raine/copywriter-bot/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeJSONErrorResponse(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{"error": code, "message": message})
}

// writeError maps an error from the pipeline or the store to a status code.
func writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSONErrorResponse(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, content.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, llm.ErrUpstreamServer):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, llm.ErrRequestRejected):
		return http.StatusBadGateway, "request_rejected"
	case errors.Is(err, llm.ErrUpstreamUnknown):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, llm.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response"
	case errors.Is(err, generator.ErrAnalysisFailed):
		return http.StatusBadGateway, "analysis_failed"
	case errors.Is(err, generator.ErrGenerationFailed):
		return http.StatusBadGateway, "generation_failed"
	}
	return http.StatusInternalServerError, "internal_error"
}
