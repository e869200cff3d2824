// Package transcribe provides an Amazon Transcribe streaming adapter.
package transcribe

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"

	svcconfig "interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/service/stt"
)

const providerName = "aws"

// StreamingClient is the subset of *transcribestreaming.Client used here.
type StreamingClient interface {
	StartStreamTranscription(ctx context.Context, params *transcribestreaming.StartStreamTranscriptionInput, optFns ...func(*transcribestreaming.Options)) (*transcribestreaming.StartStreamTranscriptionOutput, error)
}

// eventStream is satisfied by *transcribestreaming.StartStreamTranscriptionEventStream.
type eventStream interface {
	Send(ctx context.Context, event types.AudioStream) error
	Events() <-chan types.TranscriptResultStream
	Close() error
	Err() error
}

// Adapter implements stt.Adapter using Amazon Transcribe streaming.
type Adapter struct {
	client StreamingClient
	open   func(ctx context.Context, in *transcribestreaming.StartStreamTranscriptionInput) (eventStream, func() error, error)
}

// New loads AWS credentials from the default chain and creates an adapter.
func New(ctx context.Context, region string) (*Adapter, error) {
	if region == "" {
		return nil, &svcconfig.ConfigurationError{Setting: "STT_AWS_REGION", Reason: "is required for aws"}
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws transcribe: load aws config: %w", err)
	}
	return NewWithClient(transcribestreaming.NewFromConfig(cfg)), nil
}

// NewWithClient creates an adapter around an existing client.
func NewWithClient(client StreamingClient) *Adapter {
	a := &Adapter{client: client}
	a.open = a.startStream
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providerName
}

func mediaEncoding(encoding string) types.MediaEncoding {
	switch encoding {
	case "FLAC":
		return types.MediaEncodingFlac
	case "OGG_OPUS":
		return types.MediaEncodingOggOpus
	default:
		return types.MediaEncodingPcm
	}
}

func startInput(cfg stt.Config) *transcribestreaming.StartStreamTranscriptionInput {
	return &transcribestreaming.StartStreamTranscriptionInput{
		LanguageCode:         types.LanguageCode(cfg.LanguageCode),
		MediaEncoding:        mediaEncoding(cfg.AudioEncoding),
		MediaSampleRateHertz: aws.Int32(int32(cfg.SampleRateHz)),
	}
}

func (a *Adapter) startStream(ctx context.Context, in *transcribestreaming.StartStreamTranscriptionInput) (eventStream, func() error, error) {
	out, err := a.client.StartStreamTranscription(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	stream := out.GetStream()
	return stream, stream.Writer.Close, nil
}

// Start opens a transcription stream.
func (a *Adapter) Start(ctx context.Context, cfg stt.Config) (stt.Session, error) {
	stream, closeSend, err := a.open(ctx, startInput(cfg))
	if err != nil {
		return nil, fmt.Errorf("aws transcribe: start stream: %w", err)
	}
	return &session{stream: stream, closeSend: closeSend}, nil
}

type session struct {
	stream    eventStream
	closeSend func() error
	closed    atomic.Bool
	mu        sync.Mutex
	pending   []stt.Result
}

func (s *session) SendAudio(ctx context.Context, audio []byte) error {
	return s.stream.Send(ctx, &types.AudioStreamMemberAudioEvent{
		Value: types.AudioEvent{AudioChunk: audio},
	})
}

func (s *session) CloseSend() error {
	return s.closeSend()
}

func (s *session) Recv() (stt.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) == 0 {
		ev, ok := <-s.stream.Events()
		if !ok {
			if err := s.stream.Err(); err != nil && !s.closed.Load() {
				return stt.Result{}, fmt.Errorf("aws transcribe: %w", err)
			}
			return stt.Result{}, io.EOF
		}
		if te, ok := ev.(*types.TranscriptResultStreamMemberTranscriptEvent); ok {
			s.pending = convertTranscript(te.Value.Transcript)
		}
	}

	r := s.pending[0]
	s.pending = s.pending[1:]
	return r, nil
}

func (s *session) Close() error {
	s.closed.Store(true)
	return s.stream.Close()
}

func convertTranscript(t *types.Transcript) []stt.Result {
	if t == nil {
		return nil
	}
	results := make([]stt.Result, 0, len(t.Results))
	for _, r := range t.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		res := stt.Result{IsFinal: !r.IsPartial}
		for _, alt := range r.Alternatives {
			res.Alternatives = append(res.Alternatives, stt.Alternative{
				Transcript: aws.ToString(alt.Transcript),
			})
		}
		results = append(results, res)
	}
	return results
}
