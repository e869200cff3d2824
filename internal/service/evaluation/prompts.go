package evaluation

import "fmt"

const critiquePrompt = `You are a senior system design interviewer. Analyze the candidate's diagram and verbal explanation.

Transcript:
%s

Respond with a single JSON object (no markdown, no code block) with exactly these keys:
- "design_aspects": list of objects with "component", "score" (0-1), "feedback", "issues" (list of strings)
- "diagram_score": number 0-1 (visual design quality)
- "verbal_score": number 0-1 (explanation clarity)
- "overall_score": number 0-1 (weighted final)
- "follow_up": one short probing question string, or null
`

const routerPrompt = `You are routing the interview conversation. Based on transcript and previous state, output JSON only (no markdown) with:
- "emotion": one of skeptical, encouraging, concerned, approving, curious, neutral
- "should_interrupt": boolean
- "response": short feedback text to speak to the candidate

Previous state: %s

Transcript: %s
`

// noPreviousState is substituted when the caller has no prior router state.
const noPreviousState = "none"

func buildCritiquePrompt(transcript string) string {
	return fmt.Sprintf(critiquePrompt, transcript)
}

func buildRouterPrompt(transcript, previousState string) string {
	if previousState == "" {
		previousState = noPreviousState
	}
	return fmt.Sprintf(routerPrompt, previousState, transcript)
}
