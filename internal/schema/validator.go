// Package schema holds the strict response contracts for model output.
//
// Model text is untrusted: it is stripped of code fences, parsed as JSON and
// validated against a JSON Schema before it is decoded into a typed result.
// Anything that does not match is rejected with a ValidationError.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"interview-evaluator-service/internal/models"
)

// Response names used in validation errors.
const (
	ResponseCritique = "critique"
	ResponseRouter   = "router"
)

// ValidationError reports a model response that failed its contract.
type ValidationError struct {
	Response string
	Reason   string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s response %s: %v", e.Response, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s response %s", e.Response, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AsValidationError reports whether err wraps a ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// StripCodeFence removes a surrounding markdown code fence, if present.
// Text without fences is returned trimmed but otherwise unchanged.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "```") {
		return s
	}
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return s
}

// Contract validates raw model text and decodes it into T.
type Contract[T any] struct {
	name     string
	resolved *jsonschema.Resolved
}

// NewContract resolves s into a contract for the named response.
func NewContract[T any](name string, s *jsonschema.Schema) (*Contract[T], error) {
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve %s schema: %w", name, err)
	}
	return &Contract[T]{name: name, resolved: resolved}, nil
}

func mustContract[T any](name string, s *jsonschema.Schema) *Contract[T] {
	c, err := NewContract[T](name, s)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the response name reported in validation errors.
func (c *Contract[T]) Name() string {
	return c.name
}

// Parse strips fences, validates and decodes raw.
func (c *Contract[T]) Parse(raw string) (T, error) {
	var zero T
	body := StripCodeFence(raw)
	if body == "" {
		return zero, &ValidationError{Response: c.name, Reason: "is empty"}
	}

	var instance any
	if err := json.Unmarshal([]byte(body), &instance); err != nil {
		return zero, &ValidationError{Response: c.name, Reason: "is not valid JSON", Err: err}
	}
	if err := c.resolved.Validate(instance); err != nil {
		return zero, &ValidationError{Response: c.name, Reason: "violates schema", Err: err}
	}

	var out T
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return zero, &ValidationError{Response: c.name, Reason: "cannot be decoded", Err: err}
	}
	return out, nil
}

// Critique is the contract for the critique model.
var Critique = mustContract[models.CritiqueResult](ResponseCritique, critiqueSchema())

// Router is the contract for the router model.
var Router = mustContract[models.RouterResult](ResponseRouter, routerSchema())
