package validation

import "strings"

// literal is a quoted string found in code.
type literal struct {
	value   string // quote and backslash escapes resolved
	quote   byte
	start   int // offset of the opening quote
	end     int // offset just past the closing quote
	dynamic bool
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"' || c == '`'
}

// readLiteral reads the literal opening at code[start]. ok is false when the
// literal is unterminated, and stop is then the offset where reading gave up:
// the line break for a quoted string, the end of code for a template. A
// template literal that interpolates is dynamic.
func readLiteral(code string, start int) (lit literal, stop int, ok bool) {
	q := code[start]
	var b strings.Builder
	for i := start + 1; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '\\' && i+1 < len(code):
			i++
			// Only quote and backslash escapes are resolved, so CSS escapes
			// like \: survive into selector text.
			if code[i] != q && code[i] != '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(code[i])
		case c == q:
			return literal{value: b.String(), quote: q, start: start, end: i + 1, dynamic: lit.dynamic}, i + 1, true
		case c == '\n' && q != '`':
			return literal{}, i, false
		default:
			if q == '`' && c == '$' && i+1 < len(code) && code[i+1] == '{' {
				lit.dynamic = true
			}
			b.WriteByte(c)
		}
	}
	return literal{}, len(code), false
}

// regexKeywords may directly precede a regex literal.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "instanceof": true, "yield": true, "await": true,
}

// regexAllowed reports whether a slash at offset i starts a regex literal
// rather than a division, judged from the code already scanned.
func regexAllowed(scanned []byte, i int) bool {
	j := i - 1
	for j >= 0 && (scanned[j] == ' ' || scanned[j] == '\t' || scanned[j] == '\n' || scanned[j] == '\r') {
		j--
	}
	if j < 0 {
		return true
	}
	if strings.IndexByte("(,=:[!&|?{};+-*%<>~^", scanned[j]) >= 0 {
		return true
	}
	if !isIdentByte(scanned[j]) {
		return false
	}
	end := j + 1
	for j >= 0 && isIdentByte(scanned[j]) {
		j--
	}
	return regexKeywords[string(scanned[j+1:end])]
}

// readRegex reads the regex literal opening at code[start] and returns the
// offset of its closing slash and the offset past its flags. ok is false if
// a line break comes first.
func readRegex(code string, start int) (closing, end int, ok bool) {
	inClass := false
	for i := start + 1; i < len(code); i++ {
		switch c := code[i]; {
		case c == '\n':
			return 0, 0, false
		case c == '\\':
			i++
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			end = i + 1
			for end < len(code) && isIdentByte(code[end]) {
				end++
			}
			return i, end, true
		}
	}
	return 0, 0, false
}

// scanResult is a lexical pass over code that skips comments and regex
// literals.
type scanResult struct {
	literals     []literal
	blanked      string // code with comment and literal bodies replaced by spaces
	unterminated bool
}

func scan(code string) scanResult {
	var res scanResult
	out := []byte(code)

	blank := func(from, to int) {
		for k := from; k < to && k < len(out); k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}

	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			end := strings.IndexByte(code[i:], '\n')
			if end < 0 {
				end = len(code) - i
			}
			blank(i, i+end)
			i += end - 1
		case c == '/' && i+1 < len(code) && code[i+1] == '*':
			end := strings.Index(code[i+2:], "*/")
			if end < 0 {
				blank(i, len(code))
				res.unterminated = true
				i = len(code)
				break
			}
			blank(i, i+2+end+2)
			i += 2 + end + 1
		case c == '/' && regexAllowed(out, i):
			closing, end, ok := readRegex(code, i)
			if !ok {
				break
			}
			blank(i+1, closing)
			i = end - 1
		case isQuote(c):
			lit, stop, ok := readLiteral(code, i)
			if !ok {
				// An unclosed quote only swallows the rest of its line.
				blank(i+1, stop)
				res.unterminated = true
				i = stop - 1
				break
			}
			res.literals = append(res.literals, lit)
			blank(lit.start+1, lit.end-1)
			i = lit.end - 1
		}
	}

	res.blanked = string(out)
	return res
}
