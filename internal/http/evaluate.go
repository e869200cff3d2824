package http

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/logging"
	"interview-evaluator-service/internal/service/evaluation"
)

// Request body limit. Diagrams arrive inline as base64.
const maxEvaluateBody = 20 << 20

var supportedMediaTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

func (h *handlers) evaluate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	logger := logging.WithRequest(requestID, "/evaluate")

	if h.deps.Evaluator == nil {
		writeError(w, http.StatusServiceUnavailable, KindConfiguration,
			&config.ConfigurationError{Setting: "MODEL_PROVIDER", Reason: "evaluation is not configured"})
		return
	}

	var req models.EvaluateRequest
	if err := decodeStrict(r, w, maxEvaluateBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	diagram, err := decodeDiagram(req.DiagramBase64, req.DiagramMediaType)
	if err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, err)
		return
	}

	logger.Info().
		Int("transcriptLen", len(req.Transcript)).
		Bool("hasDiagram", diagram != nil).
		Bool("hasPreviousState", req.PreviousState != "").
		Msg("Evaluation requested")

	ctx := r.Context()
	if h.deps.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deps.EvaluationTimeout)
		defer cancel()
	}

	ev, err := h.deps.Evaluator.Evaluate(ctx, req.Transcript, diagram, req.PreviousState)
	if err != nil {
		status, kind := classify(err)
		logger.Error().Err(err).Str("kind", kind).Int("status", status).Msg("Evaluation failed")
		writeError(w, status, kind, err)
		return
	}

	if h.deps.Publisher != nil {
		if err := h.deps.Publisher.PublishEvaluation(r.Context(), requestID, ev); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish evaluation event")
		}
	}

	writeJSON(w, http.StatusOK, ev)
}

// decodeDiagram returns nil for an empty payload.
func decodeDiagram(data, mediaType string) (*models.Diagram, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	if mediaType == "" {
		mediaType = evaluation.DefaultMediaType
	}
	if !slices.Contains(supportedMediaTypes, mediaType) {
		return nil, fmt.Errorf("unsupported diagram_media_type %q", mediaType)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.New("diagram_base64 is not valid base64")
	}
	return &models.Diagram{Data: raw, MediaType: mediaType}, nil
}
