package extract

import (
	"fmt"
	"strings"
)

// DefaultPromptTemplate instructs the model to return location mentions as a
// JSON array. Callers may supply their own template; the composition below
// is the contract, not the wording.
const DefaultPromptTemplate = `Extract every geographic place mentioned in the following passage. Return a JSON array of objects. Each object must have these fields:

- "name": the place name as commonly known (string)
- "text_reference": the sentence or phrase where the place appears (string)
- "confidence": how certain you are this is a real, mappable place, from 0.0 to 1.0 (float)
- "scale": one of "country", "state", "city", "neighborhood", "landmark", "building", "other"

Rules:
- Only extract places that could be found on a map — skip fictional places unless they correspond to a real location
- Keep the text_reference short, one sentence at most
- Report a place once per passage even if it repeats
- Return an empty array [] if the passage mentions no places

Respond with ONLY the JSON array, no other text.`

// BuildChunkPrompt composes the full prompt for one chunk, giving the model
// the chapter label as context.
func BuildChunkPrompt(template, parentLabel, chunkText string) string {
	if template == "" {
		template = DefaultPromptTemplate
	}
	var sb strings.Builder
	sb.WriteString(template)
	sb.WriteString("\n\n---\n")
	if parentLabel != "" {
		sb.WriteString(fmt.Sprintf("Section: %s\n", parentLabel))
	}
	sb.WriteString("---\n")
	sb.WriteString(chunkText)
	return sb.String()
}
