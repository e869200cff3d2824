// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interview-evaluator-service/internal/service/stt"
)

const providerName = "google"

// Options configures the Speech client.
// Without a credentials file the client uses Application Default Credentials.
type Options struct {
	CredentialsFile string
	Endpoint        string
}

// Adapter implements stt.Adapter using Google Cloud Speech-to-Text.
type Adapter struct {
	client *speech.Client
}

// New creates a new Google STT adapter.
func New(ctx context.Context, opts Options) (*Adapter, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	c, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google: create speech client: %w", err)
	}
	return &Adapter{client: c}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providerName
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// parseAudioEncoding maps a config string to the Speech API enum, defaulting to LINEAR16.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	if v, ok := speechpb.RecognitionConfig_AudioEncoding_value[encoding]; ok && v != 0 {
		return speechpb.RecognitionConfig_AudioEncoding(v)
	}
	return speechpb.RecognitionConfig_LINEAR16
}

func streamingConfig(cfg stt.Config) *speechpb.StreamingRecognizeRequest {
	return &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   parseAudioEncoding(cfg.AudioEncoding),
					SampleRateHertz:            int32(cfg.SampleRateHz),
					LanguageCode:               cfg.LanguageCode,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: false,
			},
		},
	}
}

// Start opens a streaming recognition and sends the config as the first message.
func (a *Adapter) Start(ctx context.Context, cfg stt.Config) (stt.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("google: open stream: %w", err)
	}
	if err := stream.Send(streamingConfig(cfg)); err != nil {
		cancel()
		return nil, fmt.Errorf("google: send streaming config: %w", err)
	}
	return &session{stream: stream, cancel: cancel}, nil
}

type session struct {
	stream  speechpb.Speech_StreamingRecognizeClient
	cancel  context.CancelFunc
	closed  atomic.Bool
	mu      sync.Mutex
	pending []stt.Result
}

// SendAudio sends audio bytes to Google Speech-to-Text.
func (s *session) SendAudio(ctx context.Context, audio []byte) error {
	return s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

func (s *session) CloseSend() error {
	return s.stream.CloseSend()
}

// Recv returns the next result, reading a new response when none are buffered.
func (s *session) Recv() (stt.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) == 0 {
		resp, err := s.stream.Recv()
		if err != nil {
			if isEndOfStream(err, s.closed.Load()) {
				return stt.Result{}, io.EOF
			}
			return stt.Result{}, fmt.Errorf("google: recv: %w", err)
		}
		if resp.Error != nil && resp.Error.Code != int32(codes.OK) {
			return stt.Result{}, fmt.Errorf("google: recognition error: %w",
				status.Error(codes.Code(resp.Error.Code), resp.Error.Message))
		}
		s.pending = convertResults(resp)
	}

	r := s.pending[0]
	s.pending = s.pending[1:]
	return r, nil
}

func (s *session) Close() error {
	s.closed.Store(true)
	s.cancel()
	return nil
}

func convertResults(resp *speechpb.StreamingRecognizeResponse) []stt.Result {
	results := make([]stt.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		res := stt.Result{IsFinal: r.IsFinal}
		for _, alt := range r.Alternatives {
			res.Alternatives = append(res.Alternatives, stt.Alternative{
				Transcript: alt.Transcript,
				Confidence: float64(alt.Confidence),
			})
		}
		results = append(results, res)
	}
	return results
}

// isEndOfStream treats a clean EOF, or a cancellation we caused via Close, as the end of results.
func isEndOfStream(err error, closed bool) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	return closed && status.Code(err) == codes.Canceled
}
