package validation

import (
	"fmt"

	"github.com/corazawaf/libinjection-go"

	"github.com/ekaya-inc/safecode-engine/pkg/logging"
)

// minInjectionCheckLength skips short literals, where libinjection mostly reports noise.
const minInjectionCheckLength = 8

// FindScriptInjection returns the string literals in code that libinjection
// classifies as XSS payloads. Snippets legitimately build markup, so a hit
// is advisory and never a rule violation.
func FindScriptInjection(code string) []string {
	var hits []string
	for _, lit := range scan(code).literals {
		if len(lit.value) < minInjectionCheckLength {
			continue
		}
		if libinjection.IsXSS(lit.value) {
			hits = append(hits, lit.value)
		}
	}
	return hits
}

func injectionNote(literal string) string {
	return fmt.Sprintf("string literal %q looks like a script injection payload", logging.TruncateString(literal, 60))
}
