// Package stt defines the interface for Speech-to-Text adapters.
package stt

import (
	"context"
	"strings"
)

// Config describes the audio a session will receive.
type Config struct {
	LanguageCode  string
	SampleRateHz  int
	AudioEncoding string
}

// DefaultConfig returns 16 kHz linear PCM in US English.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "en-US",
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
	}
}

// Alternative is one recognition hypothesis. Alternatives are ordered best first.
type Alternative struct {
	Transcript string
	Confidence float64
}

// Result is a recognition event emitted by a session.
type Result struct {
	Alternatives []Alternative
	IsFinal      bool
}

// Transcript returns the top alternative's text, or "" when there is none.
func (r Result) Transcript() string {
	if len(r.Alternatives) == 0 {
		return ""
	}
	return r.Alternatives[0].Transcript
}

// IsBlank reports whether the top alternative carries no text.
func (r Result) IsBlank() bool {
	return strings.TrimSpace(r.Transcript()) == ""
}

// Session is one open streaming recognition.
//
// SendAudio and CloseSend are called from one goroutine, Recv from another.
// Recv returns io.EOF once the provider has delivered every result after CloseSend.
type Session interface {
	// SendAudio forwards one chunk of audio to the provider.
	SendAudio(ctx context.Context, audio []byte) error

	// CloseSend signals that no more audio will be sent.
	CloseSend() error

	// Recv blocks for the next recognition result.
	Recv() (Result, error)

	// Close releases the session. It unblocks a pending Recv.
	Close() error
}

// Adapter defines the interface for STT providers (Google, AWS, mock).
type Adapter interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Start opens a streaming transcription session.
	Start(ctx context.Context, cfg Config) (Session, error)
}
