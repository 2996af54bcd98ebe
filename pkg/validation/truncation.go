package validation

import "strings"

// validEndings are the characters a complete snippet can end with.
const validEndings = "});]"

// IsTruncated reports whether code looks cut off mid-output, which happens
// when the generator hits its token limit. The check runs on code with
// comments and string bodies blanked, so braces inside strings don't count.
func IsTruncated(code string) bool {
	res := scan(code)
	if res.unterminated {
		return true
	}

	braces, parens := 0, 0
	for i := 0; i < len(res.blanked); i++ {
		switch res.blanked[i] {
		case '{':
			braces++
		case '}':
			braces--
		case '(':
			parens++
		case ')':
			parens--
		}
		if braces < 0 || parens < 0 {
			return true
		}
	}
	if braces != 0 || parens != 0 {
		return true
	}

	trimmed := strings.TrimSpace(res.blanked)
	if trimmed == "" {
		// Only comments: nothing to be cut off.
		return false
	}
	return !strings.ContainsRune(validEndings, rune(trimmed[len(trimmed)-1]))
}
