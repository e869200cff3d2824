// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

// Provider names.
const (
	ProviderMock    = "mock"
	ProviderGoogle  = "google"
	ProviderAWS     = "aws"
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderMinimax = "minimax"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	STT           STTConfig
	Model         ModelConfig
	TTS           TTSConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Name              string        `env:"SERVICE_NAME" envDefault:"interview-evaluator"`
	Principal         string        `env:"SERVICE_PRINCIPAL" envDefault:"svc-interview-evaluator"`
	Env               string        `env:"ENV" envDefault:"production"`
	HTTPPort          string        `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort       string        `env:"METRICS_PORT" envDefault:"9090"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	EvaluationTimeout time.Duration `env:"EVALUATION_TIMEOUT" envDefault:"90s"`
}

// STTConfig selects and configures the transcription provider.
type STTConfig struct {
	Provider              string `env:"STT_PROVIDER" envDefault:"mock"`
	LanguageCode          string `env:"STT_LANGUAGE_CODE" envDefault:"en-US"`
	SampleRateHz          int    `env:"STT_SAMPLE_RATE_HZ" envDefault:"16000"`
	AudioEncoding         string `env:"STT_AUDIO_ENCODING" envDefault:"LINEAR16"`
	AWSRegion             string `env:"STT_AWS_REGION" envDefault:"us-west-2"`
	GoogleCredentialsFile string `env:"STT_GOOGLE_CREDENTIALS_FILE"`
	GoogleEndpoint        string `env:"STT_GOOGLE_ENDPOINT"`
}

// ModelConfig selects and configures the model provider.
type ModelConfig struct {
	Provider          string `env:"MODEL_PROVIDER" envDefault:"mock"`
	AWSRegion         string `env:"AWS_REGION" envDefault:"us-east-1"`
	CritiqueModel     string `env:"MODEL_CRITIQUE_ID" envDefault:"anthropic.claude-sonnet-4-6"`
	RouterModel       string `env:"MODEL_ROUTER_ID" envDefault:"anthropic.claude-haiku-4-5-20251001-v1:0"`
	CritiqueMaxTokens int    `env:"MODEL_CRITIQUE_MAX_TOKENS" envDefault:"2048"`
	RouterMaxTokens   int    `env:"MODEL_ROUTER_MAX_TOKENS" envDefault:"1024"`
	MaxAttempts       int    `env:"MODEL_MAX_ATTEMPTS" envDefault:"3"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL"`
}

// TTSConfig selects and configures the speech synthesis provider.
type TTSConfig struct {
	Provider       string        `env:"TTS_PROVIDER" envDefault:"mock"`
	MinimaxAPIKey  string        `env:"MINIMAX_API_KEY"`
	MinimaxBaseURL string        `env:"MINIMAX_BASE_URL" envDefault:"https://api.minimax.io"`
	Model          string        `env:"MINIMAX_TTS_MODEL" envDefault:"speech-02-hd"`
	VoiceID        string        `env:"TTS_VOICE_ID" envDefault:"English_Trustworth_Man"`
	Speed          float64       `env:"TTS_SPEED" envDefault:"1.15"`
	Pitch          int           `env:"TTS_PITCH" envDefault:"0"`
	Volume         float64       `env:"TTS_VOLUME" envDefault:"2.99"`
	SampleRateHz   int           `env:"TTS_SAMPLE_RATE_HZ" envDefault:"24000"`
	Timeout        time.Duration `env:"TTS_TIMEOUT" envDefault:"30s"`
}

// KafkaConfig configures event publishing.
type KafkaConfig struct {
	Enabled         bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers         []string `env:"KAFKA_BROKERS" envSeparator:","`
	TopicTranscript string   `env:"KAFKA_TOPIC_TRANSCRIPT" envDefault:"interview.transcript.segment"`
	TopicEvaluation string   `env:"KAFKA_TOPIC_EVALUATION" envDefault:"interview.evaluation.completed"`
	Principal       string   `env:"KAFKA_PRINCIPAL"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Setting, e.Reason)
}

// AsConfigurationError reports whether err wraps a ConfigurationError.
func AsConfigurationError(err error) (*ConfigurationError, bool) {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Load parses the environment, applies defaults and validates the result.
func Load() (*Configuration, error) {
	var cfg Configuration
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}

	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks provider selections and the credentials they require.
func (c *Configuration) Validate() error {
	var errs []error
	invalid := func(setting, reason string) {
		errs = append(errs, &ConfigurationError{Setting: setting, Reason: reason})
	}

	if c.Service.HTTPPort == "" {
		invalid("HTTP_PORT", "is required")
	}

	if !slices.Contains([]string{ProviderMock, ProviderGoogle, ProviderAWS}, c.STT.Provider) {
		invalid("STT_PROVIDER", fmt.Sprintf("must be mock, google or aws, got %q", c.STT.Provider))
	}
	if c.STT.SampleRateHz <= 0 {
		invalid("STT_SAMPLE_RATE_HZ", "must be positive")
	}
	if c.STT.LanguageCode == "" {
		invalid("STT_LANGUAGE_CODE", "is required")
	}
	if c.STT.Provider == ProviderAWS && c.STT.AWSRegion == "" {
		invalid("STT_AWS_REGION", "is required for aws")
	}

	switch c.Model.Provider {
	case ProviderMock:
	case ProviderBedrock:
		if c.Model.AWSRegion == "" {
			invalid("AWS_REGION", "is required for bedrock")
		}
	case ProviderOpenAI:
		if c.Model.OpenAIAPIKey == "" {
			invalid("OPENAI_API_KEY", "is required for openai")
		}
	default:
		invalid("MODEL_PROVIDER", fmt.Sprintf("must be mock, bedrock or openai, got %q", c.Model.Provider))
	}
	if c.Model.CritiqueModel == "" {
		invalid("MODEL_CRITIQUE_ID", "is required")
	}
	if c.Model.RouterModel == "" {
		invalid("MODEL_ROUTER_ID", "is required")
	}
	if c.Model.CritiqueMaxTokens <= 0 {
		invalid("MODEL_CRITIQUE_MAX_TOKENS", "must be positive")
	}
	if c.Model.RouterMaxTokens <= 0 {
		invalid("MODEL_ROUTER_MAX_TOKENS", "must be positive")
	}

	switch c.TTS.Provider {
	case ProviderMock:
	case ProviderMinimax:
		if c.TTS.MinimaxAPIKey == "" {
			invalid("MINIMAX_API_KEY", "is required for minimax")
		}
	default:
		invalid("TTS_PROVIDER", fmt.Sprintf("must be mock or minimax, got %q", c.TTS.Provider))
	}
	if c.TTS.SampleRateHz <= 0 {
		invalid("TTS_SAMPLE_RATE_HZ", "must be positive")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		invalid("KAFKA_BROKERS", "is required when KAFKA_ENABLED is true")
	}

	return errors.Join(errs...)
}
