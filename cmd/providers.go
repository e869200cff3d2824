package main

import (
	"context"
	"fmt"
	"sync"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/service/llm"
	"interview-evaluator-service/internal/service/llm/bedrock"
	llmmock "interview-evaluator-service/internal/service/llm/mock"
	"interview-evaluator-service/internal/service/llm/openai"
	"interview-evaluator-service/internal/service/relay"
	"interview-evaluator-service/internal/service/stt"
	"interview-evaluator-service/internal/service/stt/google"
	sttmock "interview-evaluator-service/internal/service/stt/mock"
	"interview-evaluator-service/internal/service/stt/transcribe"
	"interview-evaluator-service/internal/service/tts"
	"interview-evaluator-service/internal/service/tts/minimax"
	ttsmock "interview-evaluator-service/internal/service/tts/mock"
)

// newTranscriptionAdapter returns the configured adapter and a func releasing it.
func newTranscriptionAdapter(ctx context.Context, cfg config.STTConfig) (stt.Adapter, func(), error) {
	switch cfg.Provider {
	case config.ProviderGoogle:
		a, err := google.New(ctx, google.Options{
			CredentialsFile: cfg.GoogleCredentialsFile,
			Endpoint:        cfg.GoogleEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, func() { _ = a.Close() }, nil
	case config.ProviderAWS:
		a, err := transcribe.New(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		return a, func() {}, nil
	case config.ProviderMock:
		return sttmock.New(sttmock.Options{}), func() {}, nil
	default:
		return nil, nil, &config.ConfigurationError{Setting: "STT_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}

func newInvoker(ctx context.Context, cfg config.ModelConfig) (llm.Invoker, error) {
	switch cfg.Provider {
	case config.ProviderBedrock:
		inv, err := bedrock.New(ctx, bedrock.Config{Region: cfg.AWSRegion, MaxAttempts: cfg.MaxAttempts})
		if err != nil {
			return nil, err
		}
		return inv, nil
	case config.ProviderOpenAI:
		inv, err := openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL, MaxAttempts: cfg.MaxAttempts})
		if err != nil {
			return nil, err
		}
		return inv, nil
	case config.ProviderMock:
		return llmmock.Default(cfg.CritiqueModel, cfg.RouterModel), nil
	default:
		return nil, &config.ConfigurationError{Setting: "MODEL_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}

func newSynthesizer(cfg config.TTSConfig) (tts.Synthesizer, error) {
	switch cfg.Provider {
	case config.ProviderMinimax:
		s, err := minimax.New(minimax.Config{
			APIKey:       cfg.MinimaxAPIKey,
			BaseURL:      cfg.MinimaxBaseURL,
			Model:        cfg.Model,
			VoiceID:      cfg.VoiceID,
			Speed:        cfg.Speed,
			Pitch:        cfg.Pitch,
			Volume:       cfg.Volume,
			SampleRateHz: cfg.SampleRateHz,
			Timeout:      cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderMock:
		return ttsmock.New(cfg.SampleRateHz, ttsmock.DefaultChunkDuration), nil
	default:
		return nil, &config.ConfigurationError{Setting: "TTS_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}

// sessionRunner runs relay sessions and ends them all on server shutdown.
type sessionRunner struct {
	relay    *relay.Relay
	ctx      context.Context
	stop     context.CancelFunc
	inFlight sync.WaitGroup
}

func newSessionRunner(r *relay.Relay) *sessionRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &sessionRunner{relay: r, ctx: ctx, stop: cancel}
}

func (s *sessionRunner) Run(ctx context.Context, conn relay.Conn) relay.Stats {
	s.inFlight.Add(1)
	defer s.inFlight.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	return s.relay.Run(ctx, conn)
}

// wait blocks until every session has returned or ctx is done.
func (s *sessionRunner) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
