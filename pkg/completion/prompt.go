package completion

import "strings"

const promptHeader = `
You are a precise literary-and-philosophy glossary assistant.

Input: a transcript (from a YouTube video) that includes spoken text and timestamps. Extract sophisticated words/phrases and produce a JSON array of entries.

Each entry must have:
{
  "timestamp": "HH:MM:SS" or "MM:SS",
  "seconds": <integer seconds>,
  "term": "<word or phrase>",
  "meaning": "<plain-English explanation (1–2 sentences)>",
  "context_excerpt": "<short excerpt (~20 words)>",
  "tally": <integer count of appearances in this transcript>
}

- Return strictly valid JSON only.
- Ensure seconds matches timestamp.
- Extract literary, philosophical, or heavy terms.
Transcript:
-----
`

const promptFooter = `
-----`

// BuildPrompt embeds the transcript in the fixed glossary instructions.
func BuildPrompt(transcript string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(transcript) + len(promptFooter))
	b.WriteString(promptHeader)
	b.WriteString(transcript)
	b.WriteString(promptFooter)
	return b.String()
}
