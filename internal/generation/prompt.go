package generation

import (
	"strings"

	"github.com/adityakmrtiwari/CliNote/internal/note"
)

const promptTemplate = `You are a professional medical assistant. Based on the following transcript and template type "{{template}}", generate a clinical note.

Transcript:
---
{{transcript}}
---

Respond in JSON only with exactly these 5 keys:

1. "subjective": concise patient complaints or history in 1-2 sentences.
2. "objective": key measurable signs, vitals, or test results as bullet points.
3. "assessment": main diagnosis or evaluation in 1-2 sentences.
4. "plan": clear action steps or treatment plan as bullet points.
5. "summary": a one-sentence summary of the visit.

Format example:
{
  "subjective": "Patient complains of mild headache and dizziness for 2 days.",
  "objective": [
    "- Blood pressure: 120/80 mmHg",
    "- Temperature: 98.6°F"
  ],
  "assessment": "Likely tension headache.",
  "plan": [
    "- Advise hydration and rest",
    "- Prescribe acetaminophen 500mg as needed",
    "- Follow up in 3 days"
  ],
  "summary": "Two-day tension headache managed conservatively."
}

Ensure:
- JSON is properly formatted and parseable.
- Keep all fields short, clear, and medically relevant.
`

// BuildPrompt embeds the transcript and template into the generation prompt.
func BuildPrompt(tmpl note.TemplateType, transcript string) string {
	r := strings.NewReplacer("{{template}}", string(tmpl), "{{transcript}}", strings.TrimSpace(transcript))
	return r.Replace(promptTemplate)
}
