package generator

import "fmt"

// systemPrompt reinforces a single representative example of the chosen
// style. One example, not the whole corpus: feeding a small model several
// examples makes it copy them verbatim. The trailing /no_think directive
// disables the model's verbose reasoning mode to bound latency.
func systemPrompt(style, example string) string {
	return fmt.Sprintf(
		"You write short, original one-liner quips.\n\n"+
			"Your comedy style: %s\n\n"+
			"Here is one example of the style (DO NOT copy or paraphrase this; write something completely new):\n"+
			"- %s\n\n"+
			"Rules:\n"+
			"- Write ONE new quip. Just the quip text, nothing else.\n"+
			"- Your quip MUST be original. Do NOT reuse phrases or structure from the example.\n"+
			"- Use the factoid below as inspiration, but transform it into humor instead of restating it.\n\n"+
			"/no_think",
		style, example,
	)
}

func userPrompt(factoid string) string {
	return fmt.Sprintf("Write a quip using this fact: %s", factoid)
}
