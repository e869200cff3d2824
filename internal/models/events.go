package models

// Event types published to the event bus.
const (
	EventTypeTranscriptSegment   = "interview.transcript.segment"
	EventTypeEvaluationCompleted = "interview.evaluation.completed"
)

// TranscriptSegmentEvent announces a segment delivered to a relay client.
type TranscriptSegmentEvent struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Sequence  int64  `json:"sequence"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// EvaluationCompletedEvent announces a successful evaluation.
type EvaluationCompletedEvent struct {
	EventType       string  `json:"eventType"`
	RequestID       string  `json:"requestId"`
	OverallScore    float64 `json:"overallScore"`
	Emotion         Emotion `json:"emotion"`
	ShouldInterrupt bool    `json:"shouldInterrupt"`
	AspectCount     int     `json:"aspectCount"`
	Timestamp       int64   `json:"timestamp"`
}
