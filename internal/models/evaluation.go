package models

// DesignAspect is the critique of one component of the candidate's design.
type DesignAspect struct {
	Component string   `json:"component"`
	Score     float64  `json:"score"`
	Feedback  string   `json:"feedback"`
	Issues    []string `json:"issues"`
}

// CritiqueResult is the validated output of the critique model.
type CritiqueResult struct {
	DesignAspects []DesignAspect `json:"design_aspects"`
	DiagramScore  float64        `json:"diagram_score"`
	VerbalScore   float64        `json:"verbal_score"`
	OverallScore  float64        `json:"overall_score"`
	FollowUp      *string        `json:"follow_up,omitempty"`
}

// RouterResult is the validated output of the router model.
// Emotion is kept as returned; it is resolved during merge.
type RouterResult struct {
	Emotion         string `json:"emotion"`
	ShouldInterrupt bool   `json:"should_interrupt"`
	Response        string `json:"response"`
}

// Evaluation is the merged assessment returned to the client.
type Evaluation struct {
	Transcript       string         `json:"transcript"`
	DiagramScore     float64        `json:"diagram_score"`
	VerbalScore      float64        `json:"verbal_score"`
	OverallScore     float64        `json:"overall_score"`
	DesignAspects    []DesignAspect `json:"design_aspects"`
	MinimaxEmotion   Emotion        `json:"minimax_emotion"`
	VerbalFeedback   string         `json:"verbal_feedback"`
	FollowUpQuestion *string        `json:"follow_up_question"`
	ShouldInterrupt  bool           `json:"should_interrupt"`
}

// Diagram is an optional whiteboard snapshot attached to an evaluation.
type Diagram struct {
	Data      []byte
	MediaType string
}
