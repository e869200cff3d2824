package tts

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTransportError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		contains string
	}{
		{"api code", &TransportError{Provider: "minimax", APICode: 1004, Err: errors.New("auth failed")}, "api status 1004"},
		{"http status", &TransportError{Provider: "minimax", HTTPStatus: 500, Err: errors.New("boom")}, "http 500"},
		{"network", &TransportError{Provider: "minimax", Err: errors.New("dial tcp")}, "minimax synthesis: dial tcp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, tt.err.Error())
			}
		})
	}
}

func TestAsTransportError(t *testing.T) {
	inner := errors.New("reset")
	wrapped := fmt.Errorf("narrate: %w", &TransportError{Provider: "minimax", Err: inner})

	te, ok := AsTransportError(wrapped)
	if !ok {
		t.Fatal("expected TransportError")
	}
	if !errors.Is(te, inner) {
		t.Error("expected cause to unwrap")
	}

	if _, ok := AsTransportError(errors.New("plain")); ok {
		t.Error("plain error must not match")
	}
}
