package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/service/llm"
)

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{})
	ce, ok := config.AsConfigurationError(err)
	if !ok {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if ce.Setting != "OPENAI_API_KEY" {
		t.Errorf("unexpected setting %q", ce.Setting)
	}
}

func TestInvoke_ReturnsFirstChoice(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	inv, err := New(Config{APIKey: "test-key", BaseURL: srv.URL, MaxAttempts: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := inv.Invoke(context.Background(), llm.Request{
		Model:     "gpt-4o",
		MaxTokens: 512,
		Messages: []llm.Message{{
			Role:  llm.RoleUser,
			Parts: []llm.Part{llm.Image("aGk=", "image/png"), llm.Text("rate it")},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"ok":true}` {
		t.Errorf("unexpected content %q", got)
	}
	if captured["model"] != "gpt-4o" {
		t.Errorf("unexpected model %v", captured["model"])
	}
	if captured["max_completion_tokens"] != float64(512) {
		t.Errorf("unexpected max_completion_tokens %v", captured["max_completion_tokens"])
	}
	raw, _ := json.Marshal(captured["messages"])
	if !strings.Contains(string(raw), "data:image/png;base64,aGk=") {
		t.Errorf("expected image data url in messages, got %s", raw)
	}
}

func TestInvoke_HTTPErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	inv, _ := New(Config{APIKey: "test-key", BaseURL: srv.URL, MaxAttempts: 1})
	_, err := inv.Invoke(context.Background(), llm.Request{
		Model:    "gpt-4o",
		Messages: []llm.Message{{Role: llm.RoleUser, Parts: []llm.Part{llm.Text("hi")}}},
	})
	te, ok := llm.AsTransportError(err)
	if !ok {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Code != "401" {
		t.Errorf("expected code 401, got %q", te.Code)
	}
}
