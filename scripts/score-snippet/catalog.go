package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

// catalogFile is the on-disk form of a brand's scoring inputs.
//
//	brand: Acme
//	rules:
//	  - type: forbidden_pattern
//	    content: "eval("
//	    priority: 9
//	selectors:
//	  - selector: "#add-to-cart"
//	    page_type: pdp
//	templates:
//	  pdp: |
//	    // @init
//	    function initTest() {}
type catalogFile struct {
	Brand     string            `yaml:"brand"`
	Rules     []ruleEntry       `yaml:"rules"`
	Selectors []selectorEntry   `yaml:"selectors"`
	Templates map[string]string `yaml:"templates"`
}

type ruleEntry struct {
	Type        string `yaml:"type"`
	Content     string `yaml:"content"`
	Priority    int    `yaml:"priority"`
	Description string `yaml:"description"`
	Inactive    bool   `yaml:"inactive"`
}

type selectorEntry struct {
	Selector string `yaml:"selector"`
	PageType string `yaml:"page_type"`
	Status   string `yaml:"status"`
}

func loadCatalog(path string) (*catalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*catalogFile, error) {
	var c catalogFile
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	for i, s := range c.Selectors {
		if s.Selector == "" {
			return nil, fmt.Errorf("selector %d has no selector string", i)
		}
		if !models.IsValidPageType(s.PageType) {
			return nil, fmt.Errorf("selector %q has unknown page_type %q", s.Selector, s.PageType)
		}
	}
	for testType := range c.Templates {
		if !models.IsValidTestType(testType) {
			return nil, fmt.Errorf("template for unknown test type %q", testType)
		}
	}
	return &c, nil
}

// Input builds the scoring input for code. Rules without a priority get the
// default of 5; selectors without a status are active.
func (c *catalogFile) Input(code, testType, pageType string, metadata map[string]any) validation.Input {
	rules := make([]models.CodeRule, 0, len(c.Rules))
	for _, r := range c.Rules {
		if r.Inactive {
			continue
		}
		priority := r.Priority
		if priority == 0 {
			priority = 5
		}
		rules = append(rules, models.CodeRule{
			RuleType:    r.Type,
			RuleContent: r.Content,
			Priority:    priority,
			IsActive:    true,
			Description: r.Description,
		})
	}

	selectors := make([]models.DOMSelector, 0, len(c.Selectors))
	for _, s := range c.Selectors {
		status := s.Status
		if status == "" {
			status = models.SelectorStatusActive
		}
		selectors = append(selectors, models.DOMSelector{
			SelectorString: s.Selector,
			PageType:       s.PageType,
			Status:         status,
		})
	}

	var template *models.Template
	if tmpl, ok := c.Templates[testType]; ok {
		template = &models.Template{TestType: testType, TemplateCode: tmpl, IsActive: true}
	}

	return validation.Input{
		Code:     code,
		TestType: testType,
		Rules:    rules,
		Catalog:  validation.SelectorCatalog{PageType: pageType, Selectors: selectors},
		Template: template,
		Metadata: metadata,
	}
}
