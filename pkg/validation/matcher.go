package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// subject is a code string prepared once for every matcher in a pass.
type subject struct {
	raw    string
	lower  string
	length int
}

func newSubject(code string) *subject {
	return &subject{
		raw:    code,
		lower:  strings.ToLower(code),
		length: utf8.RuneCountInString(code),
	}
}

// Matcher evaluates one compiled rule against code. The set of implementations
// is closed: the unexported method keeps other packages from adding variants,
// and CompileRule is the only constructor.
type Matcher interface {
	// Rule returns the rule the matcher was compiled from.
	Rule() models.CodeRule
	// violation returns a description of the violation, or "" when the code complies.
	violation(s *subject) string
}

type forbiddenPattern struct {
	rule models.CodeRule
	pat  pattern
}

type requiredPattern struct {
	rule models.CodeRule
	pat  pattern
}

type maxLength struct {
	rule  models.CodeRule
	limit int
}

type minLength struct {
	rule  models.CodeRule
	limit int
}

func (m *forbiddenPattern) Rule() models.CodeRule { return m.rule }
func (m *requiredPattern) Rule() models.CodeRule  { return m.rule }
func (m *maxLength) Rule() models.CodeRule        { return m.rule }
func (m *minLength) Rule() models.CodeRule        { return m.rule }

func (m *forbiddenPattern) violation(s *subject) string {
	if m.pat.found(s) {
		return fmt.Sprintf("forbidden pattern %s found", m.pat)
	}
	return ""
}

func (m *requiredPattern) violation(s *subject) string {
	if !m.pat.found(s) {
		return fmt.Sprintf("required pattern %s missing", m.pat)
	}
	return ""
}

func (m *maxLength) violation(s *subject) string {
	if s.length > m.limit {
		return fmt.Sprintf("code length %d exceeds maximum %d", s.length, m.limit)
	}
	return ""
}

func (m *minLength) violation(s *subject) string {
	if s.length < m.limit {
		return fmt.Sprintf("code length %d is below minimum %d", s.length, m.limit)
	}
	return ""
}

// CompileRule turns a stored rule into its Matcher variant.
// An error means the rule is malformed and must be skipped, not scored.
func CompileRule(rule models.CodeRule) (Matcher, error) {
	if rule.Priority < models.MinRulePriority || rule.Priority > models.MaxRulePriority {
		return nil, fmt.Errorf("priority %d outside [%d,%d]", rule.Priority, models.MinRulePriority, models.MaxRulePriority)
	}

	switch rule.RuleType {
	case models.RuleTypeForbiddenPattern:
		p, err := parsePattern(rule.RuleContent)
		if err != nil {
			return nil, err
		}
		return &forbiddenPattern{rule: rule, pat: p}, nil
	case models.RuleTypeRequiredPattern:
		p, err := parsePattern(rule.RuleContent)
		if err != nil {
			return nil, err
		}
		return &requiredPattern{rule: rule, pat: p}, nil
	case models.RuleTypeMaxLength:
		n, err := parseThreshold(rule.RuleContent)
		if err != nil {
			return nil, err
		}
		return &maxLength{rule: rule, limit: n}, nil
	case models.RuleTypeMinLength:
		n, err := parseThreshold(rule.RuleContent)
		if err != nil {
			return nil, err
		}
		return &minLength{rule: rule, limit: n}, nil
	default:
		return nil, fmt.Errorf("unknown rule type %q", rule.RuleType)
	}
}

// pattern is either a case-insensitive literal or a compiled regex.
type pattern struct {
	literal string // lowercased
	source  string
	re      *regexp.Regexp
}

func (p pattern) found(s *subject) bool {
	if p.re != nil {
		return p.re.MatchString(s.raw)
	}
	return strings.Contains(s.lower, p.literal)
}

func (p pattern) String() string {
	return strconv.Quote(p.source)
}

// parsePattern reads rule content. "/expr/flags" with flags drawn from "ims"
// is a regex; anything else is a literal substring.
func parsePattern(content string) (pattern, error) {
	if strings.TrimSpace(content) == "" {
		return pattern{}, fmt.Errorf("empty pattern")
	}

	if expr, flags, ok := splitRegexLiteral(content); ok {
		if expr == "" {
			return pattern{}, fmt.Errorf("empty regex")
		}
		if flags != "" {
			expr = "(?" + flags + ")" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return pattern{}, fmt.Errorf("invalid regex %q: %w", content, err)
		}
		return pattern{source: content, re: re}, nil
	}

	return pattern{literal: strings.ToLower(content), source: content}, nil
}

func splitRegexLiteral(content string) (expr, flags string, ok bool) {
	if len(content) < 2 || content[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(content, '/')
	if end == 0 {
		return "", "", false
	}
	flags = content[end+1:]
	for _, f := range flags {
		if !strings.ContainsRune("ims", f) {
			return "", "", false
		}
	}
	return content[1:end], flags, true
}

func parseThreshold(content string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return 0, fmt.Errorf("length threshold %q is not an integer", content)
	}
	if n < 0 {
		return 0, fmt.Errorf("length threshold %d is negative", n)
	}
	return n, nil
}
