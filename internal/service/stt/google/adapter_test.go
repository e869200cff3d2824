package google

import (
	"errors"
	"io"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interview-evaluator-service/internal/service/stt"
)

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"ENCODING_UNSPECIFIED", speechpb.RecognitionConfig_LINEAR16}, // fallback
		{"linear16", speechpb.RecognitionConfig_LINEAR16},             // fallback
		{"invalid", speechpb.RecognitionConfig_LINEAR16},              // fallback
		{"", speechpb.RecognitionConfig_LINEAR16},                     // fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAudioEncoding(tt.input)
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStreamingConfig(t *testing.T) {
	req := streamingConfig(stt.DefaultConfig())
	sc := req.GetStreamingConfig()
	if sc == nil {
		t.Fatal("expected streaming config request")
	}
	if sc.Config.SampleRateHertz != 16000 {
		t.Errorf("expected 16000 Hz, got %d", sc.Config.SampleRateHertz)
	}
	if sc.Config.LanguageCode != "en-US" {
		t.Errorf("expected en-US, got %s", sc.Config.LanguageCode)
	}
	if sc.InterimResults {
		t.Error("expected interim results to be disabled")
	}
}

func TestConvertResults(t *testing.T) {
	resp := &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{
			{IsFinal: true, Alternatives: []*speechpb.SpeechRecognitionAlternative{
				{Transcript: "we shard by user id", Confidence: 0.9},
				{Transcript: "we shard by user I.D.", Confidence: 0.4},
			}},
			{IsFinal: false},
			{IsFinal: false, Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "then"}}},
		},
	}

	got := convertResults(resp)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if !got[0].IsFinal || got[0].Transcript() != "we shard by user id" || len(got[0].Alternatives) != 2 {
		t.Errorf("unexpected first result %+v", got[0])
	}
	if got[1].IsFinal {
		t.Error("expected second result to be interim")
	}
}

func TestIsEndOfStream(t *testing.T) {
	cancelled := status.Error(codes.Canceled, "context canceled")
	tests := []struct {
		name     string
		err      error
		closed   bool
		expected bool
	}{
		{"eof", io.EOF, false, true},
		{"cancel after close", cancelled, true, true},
		{"cancel while open", cancelled, false, false},
		{"unavailable", status.Error(codes.Unavailable, "down"), true, false},
		{"other", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEndOfStream(tt.err, tt.closed); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
