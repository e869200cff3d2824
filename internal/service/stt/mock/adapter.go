// Package mock provides a mock STT adapter for running without cloud credentials.
// It replays scripted interview answers: a few partial results per utterance
// followed by exactly one final result, driven by incoming audio frames.
package mock

import (
	"context"
	"errors"
	"io"
	"sync"

	"interview-evaluator-service/internal/service/queue"
	"interview-evaluator-service/internal/service/stt"
)

const providerName = "mock"

// SimulatedUtterance represents a mock utterance with progressive transcripts.
type SimulatedUtterance struct {
	Partials   []string // Progressive partial transcripts
	Final      string   // Final transcript text
	Confidence float64  // Confidence score for final
}

// DefaultUtterances is a short system design answer.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"So I'd", "So I'd put a load", "So I'd put a load balancer"},
		Final:      "So I'd put a load balancer in front of the API servers",
		Confidence: 0.94,
	},
	{
		Partials:   []string{"Writes go", "Writes go to a primary"},
		Final:      "Writes go to a primary Postgres instance with two read replicas",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"For hot", "For hot reads we", "For hot reads we cache"},
		Final:      "For hot reads we cache in Redis with a five minute TTL",
		Confidence: 0.89,
	},
	{
		Partials:   []string{"Async work", "Async work goes through"},
		Final:      "Async work goes through a Kafka topic consumed by workers",
		Confidence: 0.92,
	},
}

// Options tunes the simulation.
type Options struct {
	Utterances []SimulatedUtterance
	// FramesPerResult is how many audio frames produce one result.
	FramesPerResult int
	// FailAfterFrames makes the session fail once this many frames arrive. Zero disables it.
	FailAfterFrames int
	FailErr         error
}

// Adapter implements stt.Adapter with scripted responses.
type Adapter struct {
	opts Options
}

// New creates a new mock STT adapter.
func New(opts Options) *Adapter {
	if len(opts.Utterances) == 0 {
		opts.Utterances = DefaultUtterances
	}
	if opts.FramesPerResult <= 0 {
		opts.FramesPerResult = 10
	}
	if opts.FailAfterFrames > 0 && opts.FailErr == nil {
		opts.FailErr = errors.New("mock: simulated transcription failure")
	}
	return &Adapter{opts: opts}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providerName
}

// Start begins a mock transcription session.
func (a *Adapter) Start(ctx context.Context, cfg stt.Config) (stt.Session, error) {
	return &session{
		ctx:     ctx,
		opts:    a.opts,
		results: queue.New[stt.Result](),
	}, nil
}

type session struct {
	ctx     context.Context
	opts    Options
	results *queue.Queue[stt.Result]

	mu           sync.Mutex
	frames       int
	utterance    int // index into opts.Utterances
	partialIndex int // next partial to emit
	err          error
}

// SendAudio advances the script by one frame.
// Every FramesPerResult frames emit the next partial, then the final.
func (s *session) SendAudio(ctx context.Context, audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.frames++

	if s.opts.FailAfterFrames > 0 && s.frames >= s.opts.FailAfterFrames {
		s.err = s.opts.FailErr
		s.results.Close()
		return nil
	}
	if s.frames%s.opts.FramesPerResult != 0 {
		return nil
	}

	utt := s.opts.Utterances[s.utterance%len(s.opts.Utterances)]
	if s.partialIndex < len(utt.Partials) {
		text := utt.Partials[s.partialIndex]
		s.partialIndex++
		return s.push(stt.Result{Alternatives: []stt.Alternative{{Transcript: text}}})
	}

	s.partialIndex = 0
	s.utterance++
	return s.push(stt.Result{
		IsFinal:      true,
		Alternatives: []stt.Alternative{{Transcript: utt.Final, Confidence: utt.Confidence}},
	})
}

func (s *session) push(r stt.Result) error {
	if err := s.results.Push(r); err != nil && !errors.Is(err, queue.ErrClosed) {
		return err
	}
	return nil
}

// CloseSend ends the audio stream. An utterance in progress is dropped.
func (s *session) CloseSend() error {
	s.results.Close()
	return nil
}

func (s *session) Recv() (stt.Result, error) {
	r, err := s.results.Pop(s.ctx)
	if errors.Is(err, io.EOF) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.err != nil {
			return stt.Result{}, s.err
		}
	}
	return r, err
}

func (s *session) Close() error {
	s.results.Close()
	return nil
}
