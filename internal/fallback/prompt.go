package fallback

import (
	"regexp"
	"strings"
)

// SystemPrompt pins the model to emitting raw output only.
const SystemPrompt = "You are a helpful assistant that only outputs valid HTML or plain text as requested. " +
	"Do NOT add explanation. If the user asks to modify HTML, return only the modified HTML. " +
	"If it's text->HTML conversion return only the HTML. Keep the output raw."

// BuildUserPrompt frames the instruction and the input for the model.
func BuildUserPrompt(instruction, input string) string {
	var sb strings.Builder
	sb.WriteString("INSTRUCTION:\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\nINPUT:\n")
	sb.WriteString(input)
	sb.WriteString("\n\nRespond only with the final result (no commentary).")
	return sb.String()
}

var codeBlockRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
