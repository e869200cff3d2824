package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	svcconfig "interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/service/llm"
)

type fakeRuntime struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeRuntime) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestInvoke_RequestBody(t *testing.T) {
	fake := &fakeRuntime{body: `{"content":[{"type":"text","text":"hello"}]}`}
	inv := NewWithClient(fake)

	req := llm.Request{
		Model:     "anthropic.claude-sonnet-4-6",
		MaxTokens: 2048,
		Messages: []llm.Message{{
			Role:  llm.RoleUser,
			Parts: []llm.Part{llm.Image("aGVsbG8=", "image/jpeg"), llm.Text("critique this")},
		}},
	}
	text, err := inv.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected 'hello', got %q", text)
	}
	if aws.ToString(fake.input.ModelId) != "anthropic.claude-sonnet-4-6" {
		t.Errorf("unexpected model id %q", aws.ToString(fake.input.ModelId))
	}

	var body requestBody
	if err := json.Unmarshal(fake.input.Body, &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.AnthropicVersion != "bedrock-2023-05-31" {
		t.Errorf("unexpected anthropic_version %q", body.AnthropicVersion)
	}
	if body.MaxTokens != 2048 {
		t.Errorf("expected max_tokens 2048, got %d", body.MaxTokens)
	}
	if len(body.Messages) != 1 || len(body.Messages[0].Content) != 2 {
		t.Fatalf("unexpected messages: %+v", body.Messages)
	}
	img := body.Messages[0].Content[0]
	if img.Type != "image" || img.Source == nil || img.Source.Type != "base64" || img.Source.MediaType != "image/jpeg" || img.Source.Data != "aGVsbG8=" {
		t.Errorf("unexpected image block: %+v", img)
	}
	if txt := body.Messages[0].Content[1]; txt.Type != "text" || txt.Text != "critique this" {
		t.Errorf("unexpected text block: %+v", txt)
	}
}

func TestInvoke_FirstTextBlock(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"single", `{"content":[{"type":"text","text":"a"}]}`, "a"},
		{"skips non-text", `{"content":[{"type":"tool_use"},{"type":"text","text":"b"},{"type":"text","text":"c"}]}`, "b"},
		{"no content", `{"content":[]}`, ""},
		{"missing content", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := NewWithClient(&fakeRuntime{body: tt.body})
			got, err := inv.Invoke(context.Background(), llm.Request{Model: "m"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestInvoke_TransportError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "rate exceeded"}
	inv := NewWithClient(&fakeRuntime{err: apiErr})

	_, err := inv.Invoke(context.Background(), llm.Request{Model: "haiku"})
	te, ok := llm.AsTransportError(err)
	if !ok {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Code != "ThrottlingException" {
		t.Errorf("expected code ThrottlingException, got %q", te.Code)
	}
	if te.Model != "haiku" || te.Provider != "bedrock" {
		t.Errorf("unexpected error fields: %+v", te)
	}
	if !errors.Is(err, apiErr) {
		t.Error("expected error to wrap the API error")
	}
}

func TestInvoke_MalformedBody(t *testing.T) {
	inv := NewWithClient(&fakeRuntime{body: `not json`})
	_, err := inv.Invoke(context.Background(), llm.Request{Model: "m"})
	if _, ok := llm.AsTransportError(err); !ok {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestNew_MissingRegion(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if _, ok := svcconfig.AsConfigurationError(err); !ok {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}
