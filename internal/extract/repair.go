package extract

import (
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock removes a Markdown code fence wrapping the payload, if any.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	// Unterminated fence: the model ran out of tokens before closing it.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// repairJSON tolerates truncated model output. An unclosed array is cut back
// to its last complete object and closed; an unclosed object gets its brace
// appended. Anything else is returned unchanged for the parser to judge.
func repairJSON(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "[") && !strings.HasSuffix(s, "]"):
		i := strings.LastIndex(s, "}")
		if i < 0 {
			return "[]"
		}
		return s[:i+1] + "]"
	case strings.HasPrefix(s, "{") && !strings.HasSuffix(s, "}"):
		return s + "}"
	}
	return s
}
