package config

import (
	"os"
	"testing"
	"time"
)

var managedEnv = []string{
	"SERVICE_NAME", "SERVICE_PRINCIPAL", "ENV", "HTTP_PORT", "METRICS_PORT", "SHUTDOWN_TIMEOUT", "EVALUATION_TIMEOUT",
	"STT_PROVIDER", "STT_LANGUAGE_CODE", "STT_SAMPLE_RATE_HZ", "STT_AUDIO_ENCODING", "STT_AWS_REGION",
	"MODEL_PROVIDER", "AWS_REGION", "MODEL_CRITIQUE_ID", "MODEL_ROUTER_ID",
	"MODEL_CRITIQUE_MAX_TOKENS", "MODEL_ROUTER_MAX_TOKENS", "OPENAI_API_KEY",
	"TTS_PROVIDER", "MINIMAX_API_KEY", "TTS_VOICE_ID", "TTS_SPEED", "TTS_PITCH", "TTS_VOLUME",
	"TTS_SAMPLE_RATE_HZ", "TTS_TIMEOUT",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedEnv {
		if prev, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, prev) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Service defaults
	if cfg.Service.Principal != "svc-interview-evaluator" {
		t.Errorf("expected default principal 'svc-interview-evaluator', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8000" {
		t.Errorf("expected default port '8000', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected default shutdown timeout 15s, got %v", cfg.Service.ShutdownTimeout)
	}

	// STT defaults
	if cfg.STT.Provider != "mock" {
		t.Errorf("expected default STT provider 'mock', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.STT.LanguageCode)
	}
	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.STT.SampleRateHz)
	}

	// Model defaults
	if cfg.Model.CritiqueModel != "anthropic.claude-sonnet-4-6" {
		t.Errorf("unexpected critique model %s", cfg.Model.CritiqueModel)
	}
	if cfg.Model.RouterModel != "anthropic.claude-haiku-4-5-20251001-v1:0" {
		t.Errorf("unexpected router model %s", cfg.Model.RouterModel)
	}
	if cfg.Model.CritiqueMaxTokens != 2048 || cfg.Model.RouterMaxTokens != 1024 {
		t.Errorf("unexpected max tokens %d/%d", cfg.Model.CritiqueMaxTokens, cfg.Model.RouterMaxTokens)
	}
	if cfg.Model.AWSRegion != "us-east-1" {
		t.Errorf("expected default region us-east-1, got %s", cfg.Model.AWSRegion)
	}

	// TTS defaults
	if cfg.TTS.VoiceID != "English_Trustworth_Man" {
		t.Errorf("unexpected voice %s", cfg.TTS.VoiceID)
	}
	if cfg.TTS.Speed != 1.15 || cfg.TTS.Volume != 2.99 || cfg.TTS.Pitch != 0 {
		t.Errorf("unexpected voice settings %+v", cfg.TTS)
	}
	if cfg.TTS.SampleRateHz != 24000 {
		t.Errorf("expected 24000 Hz, got %d", cfg.TTS.SampleRateHz)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STT_PROVIDER", "aws")
	t.Setenv("STT_SAMPLE_RATE_HZ", "8000")
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TTS_PROVIDER", "minimax")
	t.Setenv("MINIMAX_API_KEY", "mm-test")
	t.Setenv("TTS_TIMEOUT", "10s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Service.HTTPPort)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Observability.LogLevel)
	}
	if cfg.STT.Provider != "aws" || cfg.STT.SampleRateHz != 8000 {
		t.Errorf("unexpected STT config %+v", cfg.STT)
	}
	if cfg.Model.Provider != "openai" || cfg.Model.OpenAIAPIKey != "sk-test" {
		t.Errorf("unexpected model config %+v", cfg.Model)
	}
	if cfg.TTS.Timeout != 10*time.Second {
		t.Errorf("expected tts timeout 10s, got %v", cfg.TTS.Timeout)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PRINCIPAL", "svc-custom")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Kafka.Principal != "svc-custom" {
		t.Errorf("expected kafka principal to fall back to 'svc-custom', got %s", cfg.Kafka.Principal)
	}
}

func TestLoad_MalformedNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("STT_SAMPLE_RATE_HZ", "sixteen-thousand")

	if _, err := Load(); err == nil {
		t.Error("expected parse error for malformed sample rate")
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		env     map[string]string
		setting string
	}{
		{"minimax key", map[string]string{"TTS_PROVIDER": "minimax"}, "MINIMAX_API_KEY"},
		{"openai key", map[string]string{"MODEL_PROVIDER": "openai"}, "OPENAI_API_KEY"},
		{"kafka brokers", map[string]string{"KAFKA_ENABLED": "true"}, "KAFKA_BROKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			ce, ok := AsConfigurationError(err)
			if !ok {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if ce.Setting != tt.setting {
				t.Errorf("expected setting %s, got %s", tt.setting, ce.Setting)
			}
		})
	}
}

func TestValidate_UnknownProviders(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name  string
		apply func(*Configuration)
	}{
		{"stt", func(c *Configuration) { c.STT.Provider = "azure" }},
		{"model", func(c *Configuration) { c.Model.Provider = "vertex" }},
		{"tts", func(c *Configuration) { c.TTS.Provider = "polly" }},
		{"sample rate", func(c *Configuration) { c.STT.SampleRateHz = 0 }},
		{"tokens", func(c *Configuration) { c.Model.RouterMaxTokens = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.apply(cfg)
			if _, ok := AsConfigurationError(cfg.Validate()); !ok {
				t.Error("expected ConfigurationError")
			}
		})
	}
}

func TestValidate_AWSTranscribeNeedsRegion(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.STT.Provider = ProviderAWS
	cfg.STT.AWSRegion = ""

	ce, ok := AsConfigurationError(cfg.Validate())
	if !ok {
		t.Fatal("expected ConfigurationError")
	}
	if ce.Setting != "STT_AWS_REGION" {
		t.Errorf("expected STT_AWS_REGION, got %s", ce.Setting)
	}
}
