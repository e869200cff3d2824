// Package minimax streams speech from the MiniMax t2a_v2 endpoint.
package minimax

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/logging"
	"interview-evaluator-service/internal/observability/metrics"
	"interview-evaluator-service/internal/service/tts"
)

const (
	ProviderName = "minimax"

	speechPath = "/v1/t2a_v2"

	// statusAggregate marks the trailing unit that repeats the whole clip.
	statusAggregate = 2

	maxLineBytes = 16 << 20
)

// Config holds MiniMax credentials and voice settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	VoiceID      string
	Speed        float64
	Pitch        int
	Volume       float64
	SampleRateHz int
	Timeout      time.Duration
}

// Synthesizer implements tts.Synthesizer against MiniMax.
type Synthesizer struct {
	cfg     Config
	client  *http.Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synthesizer) { s.client = c }
}

// WithMetrics overrides metrics.DefaultMetrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synthesizer) { s.metrics = m }
}

// New creates a MiniMax synthesizer. The API key is required.
//
// Timeout bounds connecting and waiting for the response headers; the audio
// stream itself is bounded by the caller's context.
func New(cfg Config, opts ...Option) (*Synthesizer, error) {
	if cfg.APIKey == "" {
		return nil, &config.ConfigurationError{Setting: "MINIMAX_API_KEY", Reason: "is required for minimax"}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	s := &Synthesizer{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
				TLSHandshakeTimeout:   cfg.Timeout,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
		metrics: metrics.DefaultMetrics,
		logger:  logging.WithComponent("tts.minimax"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns "minimax".
func (s *Synthesizer) Name() string { return ProviderName }

// SampleRate returns the configured PCM sample rate.
func (s *Synthesizer) SampleRate() int { return s.cfg.SampleRateHz }

type voiceSetting struct {
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`
	Pitch   int     `json:"pitch"`
	Vol     float64 `json:"vol"`
	Emotion string  `json:"emotion"`
}

type audioSetting struct {
	SampleRate int    `json:"sample_rate"`
	Format     string `json:"format"`
	Channel    int    `json:"channel"`
}

type streamOptions struct {
	ExcludeAggregatedAudio bool `json:"exclude_aggregated_audio"`
}

type speechRequest struct {
	Model         string        `json:"model"`
	Text          string        `json:"text"`
	Stream        bool          `json:"stream"`
	OutputFormat  string        `json:"output_format"`
	StreamOptions streamOptions `json:"stream_options"`
	VoiceSetting  voiceSetting  `json:"voice_setting"`
	AudioSetting  audioSetting  `json:"audio_setting"`
}

type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

type speechUnit struct {
	Data *struct {
		Audio  string `json:"audio"`
		Status int    `json:"status"`
	} `json:"data"`
	BaseResp *baseResp `json:"base_resp"`
}

func (s *Synthesizer) buildRequest(text string, emotion models.Emotion) speechRequest {
	return speechRequest{
		Model:         s.cfg.Model,
		Text:          text,
		Stream:        true,
		OutputFormat:  "hex",
		StreamOptions: streamOptions{ExcludeAggregatedAudio: true},
		VoiceSetting: voiceSetting{
			VoiceID: s.cfg.VoiceID,
			Speed:   s.cfg.Speed,
			Pitch:   s.cfg.Pitch,
			Vol:     s.cfg.Volume,
			Emotion: emotion.String(),
		},
		AudioSetting: audioSetting{
			SampleRate: s.cfg.SampleRateHz,
			Format:     "pcm",
			Channel:    1,
		},
	}
}

// Synthesize streams decoded PCM for text spoken with emotion.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, emotion models.Emotion) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		s.logger.Info().
			Str("voiceId", s.cfg.VoiceID).
			Str("emotion", emotion.String()).
			Int("textLen", len(text)).
			Msg("Calling MiniMax synthesis")

		resp, err := s.open(ctx, s.buildRequest(text, emotion))
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		s.logger.Debug().
			Int("status", resp.StatusCode).
			Str("contentType", resp.Header.Get("Content-Type")).
			Msg("MiniMax response")

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			units, ok := parseLine(scanner.Bytes())
			if !ok {
				s.metrics.RecordTTSSkipped("malformed")
				continue
			}
			for _, u := range units {
				audio, err := s.decodeUnit(u)
				if err != nil {
					yield(nil, err)
					return
				}
				if len(audio) == 0 {
					continue
				}
				if !yield(audio, nil) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			yield(nil, &tts.TransportError{Provider: ProviderName, Err: fmt.Errorf("read stream: %w", err)})
		}
	}
}

func (s *Synthesizer) open(ctx context.Context, body speechRequest) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+speechPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &tts.TransportError{Provider: ProviderName, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &tts.TransportError{
			Provider:   ProviderName,
			HTTPStatus: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(msg))),
		}
	}
	return resp, nil
}

// decodeUnit returns the unit's audio, or nil for units that carry none.
func (s *Synthesizer) decodeUnit(u speechUnit) ([]byte, error) {
	if u.BaseResp != nil && u.BaseResp.StatusCode != 0 {
		return nil, &tts.TransportError{
			Provider: ProviderName,
			APICode:  u.BaseResp.StatusCode,
			Err:      errors.New(u.BaseResp.StatusMsg),
		}
	}
	if u.Data == nil || u.Data.Audio == "" {
		return nil, nil
	}
	if u.Data.Status == statusAggregate {
		s.metrics.RecordTTSSkipped("aggregate")
		return nil, nil
	}
	audio, err := hex.DecodeString(u.Data.Audio)
	if err != nil {
		s.metrics.RecordTTSSkipped("invalid_hex")
		s.logger.Warn().Err(err).Msg("Skipping undecodable audio unit")
		return nil, nil
	}
	return audio, nil
}

// parseLine decodes one response line. Lines may carry an SSE "data:" prefix
// and hold either one unit or a list of units. Blank lines parse to nothing.
func parseLine(line []byte) ([]speechUnit, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, true
	}
	if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
		line = bytes.TrimSpace(rest)
		if len(line) == 0 {
			return nil, true
		}
	}
	if line[0] == '[' {
		var units []speechUnit
		if err := json.Unmarshal(line, &units); err != nil {
			return nil, false
		}
		return units, true
	}
	var unit speechUnit
	if err := json.Unmarshal(line, &unit); err != nil {
		return nil, false
	}
	return []speechUnit{unit}, true
}
