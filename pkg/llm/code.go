package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the start of model responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// fencePattern matches the first fenced block, with or without a language tag.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)```")

// ExtractCode returns the code from a model response. When the response holds
// a fenced block, its body is returned; otherwise the trimmed response is.
// An unterminated fence keeps everything after the opening line so a
// truncated draft still reaches validation.
func ExtractCode(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(cleaned)
	if strings.HasPrefix(trimmed, "```") {
		if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
			return strings.TrimSpace(trimmed[nl+1:])
		}
		return ""
	}
	return trimmed
}
