package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"interview-evaluator-service/internal/app"
	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/events"
	apihttp "interview-evaluator-service/internal/http"
	"interview-evaluator-service/internal/observability"
	"interview-evaluator-service/internal/observability/metrics"
	"interview-evaluator-service/internal/service/evaluation"
	"interview-evaluator-service/internal/service/relay"
	"interview-evaluator-service/internal/service/stt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet; the default logger writes JSON to stderr.
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	application := app.New(cfg)
	ctx := context.Background()

	// Publisher for transcript segment and evaluation events
	publisher := events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicTranscript: cfg.Kafka.TopicTranscript,
		TopicEvaluation: cfg.Kafka.TopicEvaluation,
		Principal:       cfg.Kafka.Principal,
	})
	defer publisher.Close()

	adapter, closeAdapter, err := newTranscriptionAdapter(ctx, cfg.STT)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.STT.Provider).Msg("Failed to create transcription adapter")
	}
	defer closeAdapter()

	invoker, err := newInvoker(ctx, cfg.Model)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Model.Provider).Msg("Failed to create model invoker")
	}

	synthesizer, err := newSynthesizer(cfg.TTS)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.TTS.Provider).Msg("Failed to create synthesizer")
	}

	pipeline := evaluation.New(invoker, evaluation.Config{
		CritiqueModel:     cfg.Model.CritiqueModel,
		RouterModel:       cfg.Model.RouterModel,
		CritiqueMaxTokens: cfg.Model.CritiqueMaxTokens,
		RouterMaxTokens:   cfg.Model.RouterMaxTokens,
	}, metrics.DefaultMetrics)

	sessions := newSessionRunner(relay.New(adapter, stt.Config{
		LanguageCode:  cfg.STT.LanguageCode,
		SampleRateHz:  cfg.STT.SampleRateHz,
		AudioEncoding: cfg.STT.AudioEncoding,
	}, relay.WithSink(publisher)))

	router := apihttp.NewRouter(apihttp.Dependencies{
		App:               application,
		Evaluator:         pipeline,
		Synthesizer:       synthesizer,
		Transcriber:       sessions,
		Publisher:         publisher,
		Metrics:           metrics.DefaultMetrics,
		EvaluationTimeout: cfg.Service.EvaluationTimeout,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Service.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Hijacked WebSocket connections are not drained by Shutdown.
	server.RegisterOnShutdown(sessions.stop)

	obsServer := observability.NewServer(
		net.JoinHostPort("", cfg.Service.MetricsPort),
		prometheus.DefaultGatherer,
		func() bool { return !application.StartupTime.IsZero() },
	)
	obsServer.Start()

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application start failed")
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Interview evaluator listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	log.Info().Str("signal", received.String()).Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown incomplete")
	}
	if err := sessions.wait(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Relay sessions did not finish in time")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown incomplete")
	}
	application.Shutdown()
}
