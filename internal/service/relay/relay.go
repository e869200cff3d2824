// Package relay bridges a duplex client connection and a streaming
// transcription session.
//
// Each session runs three stages over two unbounded queues:
//
//	client ──receive──▶ audio ──transcribe──▶ transcripts ──forward──▶ client
//
// End of stream travels down the queues: a client disconnect closes the
// audio queue, the transcribe stage always closes the transcript queue on
// exit, and the forward stage closes the connection when it drains. Run
// returns only after all three stages have returned.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/logging"
	"interview-evaluator-service/internal/observability/metrics"
	"interview-evaluator-service/internal/service/queue"
	"interview-evaluator-service/internal/service/stt"
)

const previewLength = 80

// Conn is the client side of a relay session.
type Conn interface {
	// ReadAudio blocks for the next binary audio frame. Any error ends client input.
	ReadAudio(ctx context.Context) ([]byte, error)

	// SendTranscript delivers one recognized segment.
	SendTranscript(ctx context.Context, text string) error

	// SendError reports a transcription failure.
	SendError(ctx context.Context, message string) error

	// Close tears down the connection and unblocks ReadAudio.
	Close() error
}

// SegmentSink observes segments after they reach the client.
type SegmentSink interface {
	SegmentDelivered(ctx context.Context, sessionID string, sequence int64, text string)
}

// Stats summarizes a finished session.
type Stats struct {
	SessionID  string
	Frames     int64
	AudioBytes int64
	Segments   int64
	Transcript models.Transcript
	State      State
	Err        error
	Duration   time.Duration
}

// Relay runs transcription sessions. One Relay serves many concurrent sessions.
type Relay struct {
	adapter stt.Adapter
	cfg     stt.Config
	metrics *metrics.Metrics
	sink    SegmentSink
}

// Option configures a Relay.
type Option func(*Relay)

// WithMetrics overrides metrics.DefaultMetrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// WithSink registers an observer for delivered segments.
func WithSink(sink SegmentSink) Option {
	return func(r *Relay) { r.sink = sink }
}

// New creates a relay that opens sessions on adapter with cfg.
func New(adapter stt.Adapter, cfg stt.Config, opts ...Option) *Relay {
	r := &Relay{
		adapter: adapter,
		cfg:     cfg,
		metrics: metrics.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// transcriptItem is either a recognized segment or the session's failure.
type transcriptItem struct {
	text string
	err  error
}

type session struct {
	id          string
	conn        Conn
	lifecycle   *Lifecycle
	audio       *queue.Queue[[]byte]
	transcripts *queue.Queue[transcriptItem]
	logger      zerolog.Logger
	started     time.Time

	// transcript is owned by the forward stage until Run joins it.
	transcript models.Transcript

	frames     atomic.Int64
	audioBytes atomic.Int64
	segments   atomic.Int64
}

// Run serves one client until every stage has finished.
// Transcription failures are reported to the client, not returned.
func (r *Relay) Run(ctx context.Context, conn Conn) Stats {
	s := &session{
		id:          uuid.NewString(),
		conn:        conn,
		audio:       queue.New[[]byte](),
		transcripts: queue.New[transcriptItem](),
		started:     time.Now(),
	}
	s.lifecycle = NewLifecycle()
	s.logger = logging.WithSession(s.id)

	r.metrics.RecordSessionStart()
	s.logger.Info().Str("sttProvider", r.adapter.Name()).Msg("Relay session started")

	var g errgroup.Group
	g.Go(func() error { return r.receive(ctx, s) })
	g.Go(func() error { return r.transcribe(ctx, s) })
	g.Go(func() error { return r.forward(ctx, s) })
	_ = g.Wait()

	// A stage that returned early must not leave the audio queue open.
	s.audio.Close()
	pending := s.audio.Len()

	if ctx.Err() != nil {
		_ = s.lifecycle.Cancel()
	}
	state := s.lifecycle.Complete()

	stats := Stats{
		SessionID:  s.id,
		Frames:     s.frames.Load(),
		AudioBytes: s.audioBytes.Load(),
		Segments:   s.segments.Load(),
		Transcript: s.transcript,
		State:      state,
		Err:        s.lifecycle.Failure(),
		Duration:   time.Since(s.started),
	}
	r.metrics.RecordSessionEnd(state.Outcome(), stats.Duration.Seconds())

	s.logger.Info().
		Str("state", state.String()).
		Int64("frames", stats.Frames).
		Int64("audioBytes", stats.AudioBytes).
		Int64("segments", stats.Segments).
		Int("untranscribedFrames", pending).
		Dur("duration", stats.Duration).
		Msg("Relay session finished")

	return stats
}

// receive reads client audio into the audio queue until the client goes away.
func (r *Relay) receive(ctx context.Context, s *session) error {
	defer s.audio.Close()

	for {
		frame, err := s.conn.ReadAudio(ctx)
		if err != nil {
			s.lifecycle.InputEnded()
			s.logger.Info().
				Err(err).
				Int64("frames", s.frames.Load()).
				Msg("Client audio ended")
			return nil
		}
		if len(frame) == 0 {
			continue
		}

		n := s.frames.Add(1)
		s.audioBytes.Add(int64(len(frame)))
		r.metrics.RecordAudioReceived(len(frame))
		if n == 1 {
			s.logger.Info().Int("bytes", len(frame)).Msg("First audio frame received")
		}

		if err := s.audio.Push(frame); err != nil {
			// The queue is only closed early once every stage is winding down.
			return nil
		}
	}
}

// transcribe drives one transcription session from the audio queue.
// It always closes the transcript queue, and reports at most one failure.
func (r *Relay) transcribe(ctx context.Context, s *session) error {
	defer s.transcripts.Close()

	stream, err := r.adapter.Start(ctx, r.cfg)
	if err != nil {
		r.failed(ctx, s, fmt.Errorf("start transcription: %w", err))
		return nil
	}
	streamLogger := logging.WithStream(s.id, r.adapter.Name())
	streamLogger.Debug().
		Str("languageCode", r.cfg.LanguageCode).
		Int("sampleRateHz", r.cfg.SampleRateHz).
		Msg("Transcription stream opened")

	g, gctx := errgroup.WithContext(ctx)
	// Recv does not take a context; closing the stream is what unblocks it.
	stop := context.AfterFunc(gctx, func() { _ = stream.Close() })
	defer stop()

	g.Go(func() error {
		for {
			frame, err := s.audio.Pop(gctx)
			if errors.Is(err, io.EOF) {
				return stream.CloseSend()
			}
			if err != nil {
				return err
			}
			if err := stream.SendAudio(gctx, frame); err != nil {
				return fmt.Errorf("send audio: %w", err)
			}
		}
	})

	g.Go(func() error {
		first := true
		for {
			res, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if !res.IsFinal {
				streamLogger.Debug().Str("partial", preview(res.Transcript())).Msg("Partial result skipped")
				continue
			}
			if res.IsBlank() {
				r.metrics.RecordSegmentDropped("blank")
				continue
			}
			if first {
				first = false
				r.metrics.RecordSTTFirstResult(r.adapter.Name(), time.Since(s.started).Seconds())
			}
			if err := s.transcripts.Push(transcriptItem{text: res.Transcript()}); err != nil {
				return err
			}
		}
	})

	if err := g.Wait(); err != nil {
		r.failed(ctx, s, err)
	}
	return nil
}

// failed records a transcription failure and queues it for the client.
// Failures caused by server shutdown are not reported to the client.
func (r *Relay) failed(ctx context.Context, s *session, err error) {
	if ctx.Err() != nil {
		s.logger.Info().Err(err).Msg("Transcription stopped by shutdown")
		return
	}
	if s.lifecycle.Fail(err) != nil {
		return
	}
	r.metrics.RecordSTTError(r.adapter.Name(), "stream")
	s.logger.Error().Err(err).Msg("Transcription session failed")
	_ = s.transcripts.Push(transcriptItem{err: err})
}

// forward delivers queued segments, then closes the connection.
func (r *Relay) forward(ctx context.Context, s *session) error {
	defer s.conn.Close()

	for {
		item, err := s.transcripts.Pop(ctx)
		if err != nil {
			// io.EOF on normal completion, ctx error on shutdown.
			return nil
		}

		if item.err != nil {
			r.metrics.RecordErrorFrame()
			if err := s.conn.SendError(ctx, fmt.Sprintf("transcription failed: %v", item.err)); err != nil {
				s.logger.Info().Err(err).Msg("Could not deliver error frame")
				return nil
			}
			continue
		}

		if err := s.conn.SendTranscript(ctx, item.text); err != nil {
			s.logger.Info().Err(err).Msg("Client gone, stopping delivery")
			return nil
		}
		s.transcript.Append(item.text)
		seq := s.segments.Add(1)
		r.metrics.RecordSegmentRelayed()

		s.logger.Info().
			Int64("sequence", seq).
			Str("preview", preview(item.text)).
			Msg("Transcript segment delivered")

		if r.sink != nil {
			r.sink.SegmentDelivered(ctx, s.id, seq, item.text)
		}
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
