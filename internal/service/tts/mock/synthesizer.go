// Package mock provides a synthesizer that streams silence, for running
// the service without speech credentials.
package mock

import (
	"context"
	"iter"
	"strings"
	"time"

	"interview-evaluator-service/internal/models"
)

const (
	DefaultSampleRate    = 24000
	DefaultChunkDuration = 100 * time.Millisecond
)

// Synthesizer yields one chunk of 16-bit mono silence per word of text.
type Synthesizer struct {
	sampleRate int
	interval   time.Duration
}

// New creates a silence synthesizer. interval paces chunks; zero means no pacing.
func New(sampleRate int, interval time.Duration) *Synthesizer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Synthesizer{sampleRate: sampleRate, interval: interval}
}

// Name returns "mock".
func (s *Synthesizer) Name() string { return "mock" }

// SampleRate returns the PCM sample rate.
func (s *Synthesizer) SampleRate() int { return s.sampleRate }

// ChunkSize is the byte length of every chunk.
func (s *Synthesizer) ChunkSize() int {
	return s.sampleRate * 2 * int(DefaultChunkDuration/time.Millisecond) / 1000
}

// Synthesize streams silence until every word is spoken or ctx is done.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, emotion models.Emotion) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		words := len(strings.Fields(text))
		for i := 0; i < words; i++ {
			if i > 0 && s.interval > 0 {
				select {
				case <-ctx.Done():
					yield(nil, ctx.Err())
					return
				case <-time.After(s.interval):
				}
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(make([]byte, s.ChunkSize()), nil) {
				return
			}
		}
	}
}
