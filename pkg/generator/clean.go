package generator

import (
	"regexp"
	"strings"
)

// Reasoning markers wrap the model's internal reasoning text, which is
// discarded. A response truncated at the token budget can leave the marker
// unterminated.
var (
	closedReasoning = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)
	openReasoning   = regexp.MustCompile(`(?s)<think>.*`)
)

// CleanResponse strips reasoning markers and surrounding quotes from raw
// model output. Well-formed paired blocks are removed first; only then is
// any unterminated marker stripped through end-of-text. Reversing that
// order would let the unterminated form consume a properly closed block
// appearing earlier, and everything after it.
func CleanResponse(raw string) string {
	text := closedReasoning.ReplaceAllString(raw, "")
	text = openReasoning.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"`)
	return strings.TrimSpace(text)
}
