// Package llm defines the model invocation capability used by the evaluation pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role tags a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind distinguishes text and image content.
type PartKind int

const (
	PartText PartKind = iota
	PartImage
)

// Part is one piece of message content.
// Image parts carry base64 data and a media type such as image/jpeg.
type Part struct {
	Kind      PartKind
	Text      string
	Data      string
	MediaType string
}

// Text returns a text part.
func Text(s string) Part {
	return Part{Kind: PartText, Text: s}
}

// Image returns an image part from base64 data.
func Image(base64Data, mediaType string) Part {
	return Part{Kind: PartImage, Data: base64Data, MediaType: mediaType}
}

// Message is a role-tagged, ordered list of parts.
type Message struct {
	Role  Role
	Parts []Part
}

// Request is a single model invocation.
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// Invoker sends one request to a hosted model and returns its first text block.
// A response with no text block yields the empty string and no error.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// TransportError reports a failed call to the model provider.
type TransportError struct {
	Provider string
	Model    string
	Code     string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s invoke %s: %s: %v", e.Provider, e.Model, e.Code, e.Err)
	}
	return fmt.Sprintf("%s invoke %s: %v", e.Provider, e.Model, e.Err)
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
