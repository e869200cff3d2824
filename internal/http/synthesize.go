package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/logging"
)

const maxSpeechBody = 64 << 10

func (h *handlers) synthesize(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithRequest(middleware.GetReqID(r.Context()), "/tts/stream")

	synth := h.deps.Synthesizer
	if synth == nil {
		writeError(w, http.StatusServiceUnavailable, KindConfiguration,
			&config.ConfigurationError{Setting: "TTS_PROVIDER", Reason: "speech synthesis is not configured"})
		return
	}

	var req models.SpeechRequest
	if err := decodeStrict(r, w, maxSpeechBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, KindBadRequest, errors.New("text is required"))
		return
	}
	emotion := models.ParseEmotion(req.Emotion)

	logger.Info().
		Int("textLen", len(req.Text)).
		Str("emotion", emotion.String()).
		Str("provider", synth.Name()).
		Msg("Speech requested")

	start := time.Now()
	flusher, _ := w.(http.Flusher)
	started := false
	chunks := 0
	var streamErr error

	for chunk, err := range synth.Synthesize(r.Context(), req.Text, emotion) {
		if err != nil {
			streamErr = err
			break
		}
		if !started {
			started = true
			w.Header().Set("Content-Type", fmt.Sprintf("audio/raw; rate=%d", synth.SampleRate()))
			w.WriteHeader(http.StatusOK)
			h.deps.Metrics.RecordTTSFirstChunk(time.Since(start).Seconds())
			logger.Info().Int("bytes", len(chunk)).Dur("latency", time.Since(start)).Msg("First audio chunk")
		}
		if _, err := w.Write(chunk); err != nil {
			logger.Info().Err(err).Int("chunks", chunks).Msg("Client gone, stopping speech stream")
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
		chunks++
		h.deps.Metrics.RecordTTSChunk(len(chunk))
	}
	h.deps.Metrics.RecordTTSStream(streamErr)

	if streamErr != nil {
		logger.Error().Err(streamErr).Int("chunks", chunks).Msg("Speech stream failed")
		if !started {
			status, kind := classify(streamErr)
			writeError(w, status, kind, streamErr)
		}
		// Once audio has been sent the status is fixed; the client sees a short stream.
		return
	}
	if !started {
		w.Header().Set("Content-Type", fmt.Sprintf("audio/raw; rate=%d", synth.SampleRate()))
		w.WriteHeader(http.StatusOK)
	}
	logger.Info().Int("chunks", chunks).Dur("duration", time.Since(start)).Msg("Speech stream done")
}
