package classifier

import (
	"fmt"
	"strings"
)

const JudgePrompt = `You are an AI-text detector. For each numbered passage below, estimate the probability that it was written by a language model rather than a person.

Rules:
- Judge each passage independently
- Consider phrasing, rhythm, hedging, generic structure and lack of specific detail
- Use the full range: 0.0 means certainly human, 1.0 means certainly AI-generated
- Return exactly one number per passage, in the same order

Respond with ONLY a JSON array of numbers, no other text.`

// BuildJudgePrompt numbers each text so the model can keep them in order.
func BuildJudgePrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString(JudgePrompt)
	sb.WriteString(fmt.Sprintf("\n\nThere are %d passages.\n", len(texts)))
	for i, t := range texts {
		sb.WriteString(fmt.Sprintf("\n---\n[%d]\n", i+1))
		sb.WriteString(t)
	}
	sb.WriteString("\n---\n")
	return sb.String()
}
