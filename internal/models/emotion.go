package models

import "strings"

// Emotion is the narration tone the router model selects for the interviewer voice.
type Emotion string

const (
	EmotionSkeptical   Emotion = "skeptical"
	EmotionEncouraging Emotion = "encouraging"
	EmotionConcerned   Emotion = "concerned"
	EmotionApproving   Emotion = "approving"
	EmotionCurious     Emotion = "curious"
	EmotionNeutral     Emotion = "neutral"
)

// Emotions lists every supported emotion in a stable order.
var Emotions = []Emotion{
	EmotionSkeptical,
	EmotionEncouraging,
	EmotionConcerned,
	EmotionApproving,
	EmotionCurious,
	EmotionNeutral,
}

// ParseEmotion resolves a free-form label to an Emotion.
// Matching ignores case and surrounding whitespace; anything unrecognized is neutral.
func ParseEmotion(s string) Emotion {
	label := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, e := range Emotions {
		if e == label {
			return e
		}
	}
	return EmotionNeutral
}

func (e Emotion) String() string {
	return string(e)
}
