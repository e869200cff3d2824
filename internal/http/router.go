// Package http exposes the evaluator over HTTP and WebSocket.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"interview-evaluator-service/internal/app"
	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability"
	"interview-evaluator-service/internal/observability/metrics"
	"interview-evaluator-service/internal/service/relay"
	"interview-evaluator-service/internal/service/tts"
)

// Evaluator scores a transcript and optional diagram.
type Evaluator interface {
	Evaluate(ctx context.Context, transcript string, diagram *models.Diagram, previousState string) (*models.Evaluation, error)
}

// Transcriber serves one relay session per WebSocket connection.
type Transcriber interface {
	Run(ctx context.Context, conn relay.Conn) relay.Stats
}

// EvaluationPublisher announces completed evaluations.
type EvaluationPublisher interface {
	PublishEvaluation(ctx context.Context, requestID string, ev *models.Evaluation) error
}

// Dependencies wires the router to the service's collaborators.
// A nil Evaluator, Synthesizer or Transcriber answers 503 on its route.
type Dependencies struct {
	App               *app.Application
	Evaluator         Evaluator
	Synthesizer       tts.Synthesizer
	Transcriber       Transcriber
	Publisher         EvaluationPublisher
	Metrics           *metrics.Metrics
	EvaluationTimeout time.Duration
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(deps Dependencies) http.Handler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.DefaultMetrics
	}
	h := &handlers{deps: deps}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestMetrics(deps.Metrics))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if deps.App != nil && deps.App.StartupTime.IsZero() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("starting"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
	})

	r.Post("/evaluate", h.evaluate)
	r.Post("/tts/stream", h.synthesize)
	r.Get("/ws/transcribe", h.transcribe)

	return r
}

type handlers struct {
	deps Dependencies
}
