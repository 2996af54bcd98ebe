package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

const systemPrompt = `You write client-side JavaScript for e-commerce A/B tests.
Return only the code, with no explanation. Use only the DOM selectors listed as available.
Follow the brand template's structure, section markers, and naming style.
Never use a pattern listed as forbidden.`

// PromptInput is the brand context a drafting prompt is built from.
type PromptInput struct {
	BrandName string
	TestType  string
	PageType  string
	Request   string
	Template  *models.Template
	Selectors []models.DOMSelector
	Rules     []models.CodeRule
	Metadata  map[string]any
}

// BuildPrompt renders the drafting prompt. Only active selectors are offered,
// and rules are listed highest priority first.
func BuildPrompt(in PromptInput) GenerateRequest {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Brand: %s\n", in.BrandName)
	fmt.Fprintf(&sb, "Test type: %s\n", in.TestType)
	if in.PageType != "" && in.PageType != in.TestType {
		fmt.Fprintf(&sb, "Page type: %s\n", in.PageType)
	}

	sb.WriteString("\n## Request\n")
	sb.WriteString(strings.TrimSpace(in.Request))
	sb.WriteString("\n")

	if len(in.Metadata) > 0 {
		if data, err := json.MarshalIndent(in.Metadata, "", "  "); err == nil {
			sb.WriteString("\n## Request metadata\n")
			sb.Write(data)
			sb.WriteString("\n")
		}
	}

	var active []string
	for _, s := range in.Selectors {
		if s.Status != models.SelectorStatusActive {
			continue
		}
		line := "- `" + s.SelectorString + "`"
		if s.Description != "" {
			line += ": " + s.Description
		}
		active = append(active, line)
	}
	sb.WriteString("\n## Available selectors\n")
	if len(active) == 0 {
		sb.WriteString("(none catalogued; avoid DOM queries you cannot justify)\n")
	} else {
		sb.WriteString(strings.Join(active, "\n"))
		sb.WriteString("\n")
	}

	if len(in.Rules) > 0 {
		rules := append([]models.CodeRule(nil), in.Rules...)
		sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

		sb.WriteString("\n## Coding rules\n")
		for _, r := range rules {
			fmt.Fprintf(&sb, "- [priority %d] %s\n", r.Priority, describeRule(r))
		}
	}

	if in.Template != nil && strings.TrimSpace(in.Template.TemplateCode) != "" {
		sb.WriteString("\n## Brand template\n```javascript\n")
		sb.WriteString(strings.TrimRight(in.Template.TemplateCode, "\n"))
		sb.WriteString("\n```\n")
	}

	return GenerateRequest{
		System: systemPrompt,
		Prompt: sb.String(),
	}
}

func describeRule(r models.CodeRule) string {
	var desc string
	switch r.RuleType {
	case models.RuleTypeForbiddenPattern:
		desc = fmt.Sprintf("must not match %s", r.RuleContent)
	case models.RuleTypeRequiredPattern:
		desc = fmt.Sprintf("must match %s", r.RuleContent)
	case models.RuleTypeMaxLength:
		desc = fmt.Sprintf("at most %s characters", r.RuleContent)
	case models.RuleTypeMinLength:
		desc = fmt.Sprintf("at least %s characters", r.RuleContent)
	default:
		desc = r.RuleContent
	}
	if r.Description != "" {
		desc += " (" + r.Description + ")"
	}
	return desc
}
