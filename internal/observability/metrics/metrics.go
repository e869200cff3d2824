// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_evaluator"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Relay session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionOutcomes *prometheus.CounterVec
	SessionDuration prometheus.Histogram
	SegmentsRelayed prometheus.Counter
	SegmentsDropped *prometheus.CounterVec
	ErrorFramesSent prometheus.Counter

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter

	// STT metrics
	STTErrors         *prometheus.CounterVec
	STTFirstResultLat *prometheus.HistogramVec

	// Evaluation metrics
	EvaluationsTotal  prometheus.Counter
	EvaluationsFailed *prometheus.CounterVec
	EvaluationLatency prometheus.Histogram
	ModelLatency      *prometheus.HistogramVec
	ModelErrors       *prometheus.CounterVec
	EmotionsResolved  *prometheus.CounterVec

	// Speech synthesis metrics
	TTSStreams       prometheus.Counter
	TTSStreamErrors  prometheus.Counter
	TTSChunks        prometheus.Counter
	TTSBytes         prometheus.Counter
	TTSSkippedUnits  *prometheus.CounterVec
	TTSFirstChunkLat prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_sessions_total",
			Help:      "Total number of transcription relay sessions started",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_sessions_active",
			Help:      "Number of currently active relay sessions",
		}),
		SessionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_session_outcomes_total",
			Help:      "Relay sessions by terminal outcome",
		}, []string{"outcome"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_session_duration_seconds",
			Help:      "Duration of relay sessions in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		SegmentsRelayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_segments_relayed_total",
			Help:      "Total number of transcript segments delivered to clients",
		}),
		SegmentsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_segments_dropped_total",
			Help:      "Total number of recognition results not delivered",
		}, []string{"reason"}),
		ErrorFramesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_error_frames_total",
			Help:      "Total number of error frames sent to relay clients",
		}),

		AudioBytesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),

		STTErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of transcription session errors",
		}, []string{"provider", "error_type"}),
		STTFirstResultLat: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_first_result_latency_seconds",
			Help:      "Time from session start to the first final result",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),

		EvaluationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of evaluations requested",
		}),
		EvaluationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_failed_total",
			Help:      "Total number of failed evaluations by error kind",
		}, []string{"kind"}),
		EvaluationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_latency_seconds",
			Help:      "End-to-end evaluation latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
		ModelLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_invocation_latency_seconds",
			Help:      "Model invocation latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"stage", "model"}),
		ModelErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_invocation_errors_total",
			Help:      "Total number of failed model invocations",
		}, []string{"stage", "model"}),
		EmotionsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotions_resolved_total",
			Help:      "Resolved narration emotions",
		}, []string{"emotion"}),

		TTSStreams: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_streams_total",
			Help:      "Total number of speech synthesis streams",
		}),
		TTSStreamErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_stream_errors_total",
			Help:      "Total number of speech synthesis streams that failed",
		}),
		TTSChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_chunks_total",
			Help:      "Total number of audio chunks streamed to clients",
		}),
		TTSBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_bytes_total",
			Help:      "Total PCM bytes streamed to clients",
		}),
		TTSSkippedUnits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_skipped_units_total",
			Help:      "Synthesis stream units skipped",
		}, []string{"reason"}),
		TTSFirstChunkLat: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tts_first_chunk_latency_seconds",
			Help:      "Time from request to first audio chunk",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5},
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status",
		}, []string{"route", "method", "code"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordSessionStart records a new relay session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a relay session ending with the given outcome.
func (m *Metrics) RecordSessionEnd(outcome string, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
	m.SessionOutcomes.WithLabelValues(outcome).Inc()
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordSegmentRelayed records a transcript segment delivered to a client.
func (m *Metrics) RecordSegmentRelayed() {
	m.SegmentsRelayed.Inc()
}

// RecordSegmentDropped records a recognition result that was not delivered.
func (m *Metrics) RecordSegmentDropped(reason string) {
	m.SegmentsDropped.WithLabelValues(reason).Inc()
}

// RecordErrorFrame records an error frame sent to a relay client.
func (m *Metrics) RecordErrorFrame() {
	m.ErrorFramesSent.Inc()
}

// RecordSTTError records a transcription session error.
func (m *Metrics) RecordSTTError(provider, errorType string) {
	m.STTErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordSTTFirstResult records latency to the first final result of a session.
func (m *Metrics) RecordSTTFirstResult(provider string, latencySeconds float64) {
	m.STTFirstResultLat.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordEvaluation records a finished evaluation. kind is empty on success.
func (m *Metrics) RecordEvaluation(kind string, latencySeconds float64) {
	m.EvaluationsTotal.Inc()
	m.EvaluationLatency.Observe(latencySeconds)
	if kind != "" {
		m.EvaluationsFailed.WithLabelValues(kind).Inc()
	}
}

// RecordModelInvocation records one model call.
func (m *Metrics) RecordModelInvocation(stage, model string, err error, latencySeconds float64) {
	m.ModelLatency.WithLabelValues(stage, model).Observe(latencySeconds)
	if err != nil {
		m.ModelErrors.WithLabelValues(stage, model).Inc()
	}
}

// RecordEmotion records the resolved narration emotion.
func (m *Metrics) RecordEmotion(emotion string) {
	m.EmotionsResolved.WithLabelValues(emotion).Inc()
}

// RecordTTSStream records a synthesis stream ending.
func (m *Metrics) RecordTTSStream(err error) {
	m.TTSStreams.Inc()
	if err != nil {
		m.TTSStreamErrors.Inc()
	}
}

// RecordTTSChunk records one audio chunk streamed to a client.
func (m *Metrics) RecordTTSChunk(bytes int) {
	m.TTSChunks.Inc()
	m.TTSBytes.Add(float64(bytes))
}

// RecordTTSSkipped records a synthesis unit that was skipped.
func (m *Metrics) RecordTTSSkipped(reason string) {
	m.TTSSkippedUnits.WithLabelValues(reason).Inc()
}

// RecordTTSFirstChunk records time to first audio chunk.
func (m *Metrics) RecordTTSFirstChunk(latencySeconds float64) {
	m.TTSFirstChunkLat.Observe(latencySeconds)
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method string, code int, latencySeconds float64) {
	m.HTTPRequests.WithLabelValues(route, method, statusLabel(code)).Inc()
	m.HTTPLatency.WithLabelValues(route, method).Observe(latencySeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
