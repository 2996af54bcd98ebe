package validation

import (
	"regexp"
	"strings"
)

// selectorCalls are DOM-query entry points whose first string argument is a CSS selector.
var selectorCalls = map[string]bool{
	"querySelector":    true,
	"querySelectorAll": true,
	"closest":          true,
	"matches":          true,
	"$":                true,
	"jQuery":           true,
}

// attrSelectorPattern matches literals that open with an attribute selector,
// e.g. [data-test], [data-id="sku"], [class^='btn'] .label
var attrSelectorPattern = regexp.MustCompile(`^\[\s*[A-Za-z_][\w-]*\s*(?:[~|^$*]?=\s*(?:"[^"]*"|'[^']*'|[^\]"']*))?\s*\]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExtractSelectors returns the selector-like literals code passes to DOM
// queries, deduplicated in first-seen order. getElementById and
// getElementsByClassName arguments are rewritten to their #id and .class form.
// Interpolated template literals are skipped since they cannot be resolved.
// This is a literal scan, not a parser: recall is bounded by design.
func ExtractSelectors(code string) []string {
	res := scan(code)

	seen := make(map[string]bool)
	out := []string{}
	add := func(sel string) {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			return
		}
		key := NormalizeSelector(sel)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, sel)
	}

	for _, lit := range res.literals {
		if lit.dynamic {
			continue
		}

		switch call := callBefore(code, lit.start); {
		case selectorCalls[call]:
			add(lit.value)
			continue
		case call == "getElementById":
			if id := strings.TrimSpace(lit.value); id != "" && !strings.ContainsAny(id, " \t\n") {
				add("#" + id)
			}
			continue
		case call == "getElementsByClassName":
			if classes := strings.Fields(lit.value); len(classes) > 0 {
				add("." + strings.Join(classes, "."))
			}
			continue
		}

		if attrSelectorPattern.MatchString(strings.TrimSpace(lit.value)) {
			add(lit.value)
		}
	}

	return out
}

// callBefore returns the identifier of the call whose opening parenthesis
// directly precedes offset, or "" when the literal is not a first argument.
func callBefore(code string, offset int) string {
	prefix := strings.TrimRight(code[:offset], " \t\r\n")
	if !strings.HasSuffix(prefix, "(") {
		return ""
	}
	prefix = strings.TrimRight(prefix[:len(prefix)-1], " \t\r\n")

	i := len(prefix)
	for i > 0 && isIdentByte(prefix[i-1]) {
		i--
	}
	return prefix[i:]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// NormalizeSelector reduces a selector to the form used for catalog comparison:
// whitespace collapsed, no spaces around combinators or commas, and double
// quotes inside attribute brackets replaced by single quotes.
func NormalizeSelector(sel string) string {
	sel = whitespaceRun.ReplaceAllString(strings.TrimSpace(sel), " ")

	var b strings.Builder
	depth := 0
	for i := 0; i < len(sel); i++ {
		c := sel[i]
		switch {
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case c == '"' && depth > 0:
			c = '\''
		case depth == 0 && (c == '>' || c == '+' || c == '~' || c == ','):
			s := strings.TrimRight(b.String(), " ")
			b.Reset()
			b.WriteString(s)
			b.WriteByte(c)
			for i+1 < len(sel) && sel[i+1] == ' ' {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
