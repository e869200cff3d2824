package models

// EvaluateRequest is the body of an evaluation request.
// DiagramBase64 carries raw base64 without a data-URL prefix.
type EvaluateRequest struct {
	Transcript       string `json:"transcript"`
	DiagramBase64    string `json:"diagram_base64"`
	DiagramMediaType string `json:"diagram_media_type,omitempty"`
	PreviousState    string `json:"previous_state"`
}

// SpeechRequest is the body of a narration request.
type SpeechRequest struct {
	Text    string `json:"text"`
	Emotion string `json:"emotion"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
