// Package models defines the domain and wire types shared across the service.
package models

import "strings"

// Transcript is the ordered, append-only text recognized during one relay session.
type Transcript struct {
	segments []string
}

// Append adds a segment. Blank segments are ignored and reported as not added.
func (t *Transcript) Append(segment string) bool {
	if strings.TrimSpace(segment) == "" {
		return false
	}
	t.segments = append(t.segments, segment)
	return true
}

// Segments returns a copy of the recognized segments in arrival order.
func (t *Transcript) Segments() []string {
	return append([]string(nil), t.segments...)
}

// Len returns the number of segments.
func (t *Transcript) Len() int {
	return len(t.segments)
}

// Text joins all segments with single spaces.
func (t *Transcript) Text() string {
	return strings.Join(t.segments, " ")
}

// TranscriptFrame is the duplex-channel message carrying one recognized segment.
type TranscriptFrame struct {
	Transcript string `json:"transcript"`
}

// ErrorFrame is the duplex-channel message reporting a transcription failure.
type ErrorFrame struct {
	Error string `json:"error"`
}
