package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/schema"
	"interview-evaluator-service/internal/service/evaluation"
	"interview-evaluator-service/internal/service/tts"
)

// Error kinds reported in ErrorResponse.Kind.
const (
	KindBadRequest    = "bad_request"
	KindValidation    = "validation"
	KindUpstream      = "upstream"
	KindTimeout       = "timeout"
	KindConfiguration = "configuration"
	KindInternal      = "internal"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response body")
	}
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, models.ErrorResponse{Error: err.Error(), Kind: kind})
}

// classify maps a service error to an HTTP status and error kind.
func classify(err error) (int, string) {
	if _, ok := config.AsConfigurationError(err); ok {
		return http.StatusServiceUnavailable, KindConfiguration
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, KindTimeout
	}
	if _, ok := schema.AsValidationError(err); ok {
		return http.StatusBadGateway, KindValidation
	}
	if _, ok := evaluation.AsUpstreamError(err); ok {
		return http.StatusBadGateway, KindUpstream
	}
	if _, ok := tts.AsTransportError(err); ok {
		return http.StatusBadGateway, KindUpstream
	}
	return http.StatusInternalServerError, KindInternal
}

// decodeStrict decodes exactly one JSON object, rejecting unknown fields.
func decodeStrict(r *http.Request, w http.ResponseWriter, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
