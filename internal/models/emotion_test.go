package models

import "testing"

func TestParseEmotion(t *testing.T) {
	tests := []struct {
		input    string
		expected Emotion
	}{
		{"skeptical", EmotionSkeptical},
		{"SKEPTICAL", EmotionSkeptical},
		{"Encouraging", EmotionEncouraging},
		{"  concerned ", EmotionConcerned},
		{"approving", EmotionApproving},
		{"cUrIoUs", EmotionCurious},
		{"neutral", EmotionNeutral},
		{"furious", EmotionNeutral},
		{"", EmotionNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseEmotion(tt.input); got != tt.expected {
				t.Errorf("ParseEmotion(%q) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseEmotion_AlwaysInSet(t *testing.T) {
	inputs := []string{"happy", "sad", "Skeptical!", "neutral\n", "😀"}
	for _, in := range inputs {
		got := ParseEmotion(in)
		found := false
		for _, e := range Emotions {
			if got == e {
				found = true
			}
		}
		if !found {
			t.Errorf("ParseEmotion(%q) = %q, not a supported emotion", in, got)
		}
	}
}
