// Package tts defines the speech synthesis abstraction used to narrate
// evaluation feedback.
package tts

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"interview-evaluator-service/internal/models"
)

// Synthesizer turns text into a stream of raw PCM chunks.
//
// The sequence yields decoded audio in order. A non-nil error is always the
// last element. Breaking out of the loop releases the upstream connection.
type Synthesizer interface {
	Name() string

	// SampleRate is the PCM sample rate of every chunk, in Hz.
	SampleRate() int

	Synthesize(ctx context.Context, text string, emotion models.Emotion) iter.Seq2[[]byte, error]
}

// TransportError reports a failed synthesis call.
type TransportError struct {
	Provider   string
	HTTPStatus int
	// APICode is the provider's own status code when it rejected the request.
	APICode int
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.APICode != 0:
		return fmt.Sprintf("%s synthesis: api status %d: %v", e.Provider, e.APICode, e.Err)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("%s synthesis: http %d: %v", e.Provider, e.HTTPStatus, e.Err)
	default:
		return fmt.Sprintf("%s synthesis: %v", e.Provider, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsTransportError reports whether err wraps a TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
