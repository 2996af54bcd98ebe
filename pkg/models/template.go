package models

import (
	"time"

	"github.com/google/uuid"
)

// Test type constants. Each test type maps onto the page type of the same name.
const (
	TestTypePDP      = "pdp"
	TestTypeCart     = "cart"
	TestTypeCheckout = "checkout"
	TestTypeHome     = "home"
	TestTypeCategory = "category"
)

// ValidTestTypes contains all valid test type values.
var ValidTestTypes = []string{TestTypePDP, TestTypeCart, TestTypeCheckout, TestTypeHome, TestTypeCategory}

// IsValidTestType checks if the given test type is valid.
func IsValidTestType(testType string) bool {
	for _, t := range ValidTestTypes {
		if t == testType {
			return true
		}
	}
	return false
}

// Template is the approved reference snippet for a brand and test type.
type Template struct {
	ID           uuid.UUID `json:"id"`
	BrandID      uuid.UUID `json:"brand_id"`
	TestType     string    `json:"test_type"`
	TemplateCode string    `json:"template_code"`
	IsActive     bool      `json:"is_active"`
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}
