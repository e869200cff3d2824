// Package events publishes interview notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/metrics"
)

// dialTimeout allows for slow DNS resolution inside Kubernetes.
const dialTimeout = 10 * time.Second

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes transcript segments and completed evaluations to
// separate Kafka topics. Disabled publishers only log.
type Publisher struct {
	writerTranscript messageWriter
	writerEvaluation messageWriter
	principal        string
	topicTranscript  string
	topicEvaluation  string
	enabled          bool
	metrics          *metrics.Metrics
	now              func() time.Time
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicTranscript string
	TopicEvaluation string
	Principal       string
	Enabled         bool
}

// New creates a Kafka event publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
			now:     time.Now,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicTranscript: cfg.TopicTranscript,
			topicEvaluation: cfg.TopicEvaluation,
			enabled:         false,
			metrics:         m,
			now:             time.Now,
		}
	}

	transport := newTransport(dialTimeout)

	// Segments are published from the relay's delivery loop, so that writer
	// is async and reports through Completion.
	writerTranscript := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscript,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				m.KafkaPublishErrors.
					WithLabelValues(cfg.TopicTranscript, models.EventTypeTranscriptSegment).
					Add(float64(len(msgs)))
				log.Error().
					Err(err).
					Str("topic", cfg.TopicTranscript).
					Int("messages", len(msgs)).
					Msg("Failed to write to Kafka")
			}
		},
	}

	writerEvaluation := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicEvaluation,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("topicEvaluation", cfg.TopicEvaluation).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerTranscript: writerTranscript,
		writerEvaluation: writerEvaluation,
		principal:        cfg.Principal,
		topicTranscript:  cfg.TopicTranscript,
		topicEvaluation:  cfg.TopicEvaluation,
		enabled:          true,
		metrics:          m,
		now:              time.Now,
	}
}

// SegmentDelivered publishes a transcript segment event keyed by session,
// so one session's segments land on one partition in order.
func (p *Publisher) SegmentDelivered(ctx context.Context, sessionID string, sequence int64, text string) {
	event := models.TranscriptSegmentEvent{
		EventType: models.EventTypeTranscriptSegment,
		SessionID: sessionID,
		Sequence:  sequence,
		Text:      text,
		Timestamp: p.now().UnixMilli(),
	}
	// Failures are logged and counted in publish; delivery to the client already happened.
	_ = p.publish(ctx, p.writerTranscript, p.topicTranscript, event.EventType, sessionID, event)
}

// PublishEvaluation publishes a completed evaluation summary.
func (p *Publisher) PublishEvaluation(ctx context.Context, requestID string, ev *models.Evaluation) error {
	event := models.EvaluationCompletedEvent{
		EventType:       models.EventTypeEvaluationCompleted,
		RequestID:       requestID,
		OverallScore:    ev.OverallScore,
		Emotion:         ev.MinimaxEmotion,
		ShouldInterrupt: ev.ShouldInterrupt,
		AspectCount:     len(ev.DesignAspects),
		Timestamp:       p.now().UnixMilli(),
	}
	return p.publish(ctx, p.writerEvaluation, p.topicEvaluation, event.EventType, requestID, event)
}

func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close flushes and closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	if p.writerEvaluation != nil {
		if e := p.writerEvaluation.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing evaluation writer")
			err = e
		}
	}
	return err
}

// newTransport builds the broker transport shared by both writers.
func newTransport(timeout time.Duration) *kafka.Transport {
	dialer := &net.Dialer{Timeout: timeout}
	return &kafka.Transport{
		Dial:        dialer.DialContext,
		DialTimeout: timeout,
	}
}
