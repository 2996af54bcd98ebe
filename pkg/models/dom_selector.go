package models

import (
	"time"

	"github.com/google/uuid"
)

// Selector status constants. Only active selectors are known-valid.
const (
	SelectorStatusActive     = "active"
	SelectorStatusInactive   = "inactive"
	SelectorStatusDeprecated = "deprecated"
)

// Page type constants.
const (
	PageTypePDP      = "pdp"
	PageTypeCart     = "cart"
	PageTypeCheckout = "checkout"
	PageTypeHome     = "home"
	PageTypeCategory = "category"
	PageTypeSearch   = "search"
)

// ValidPageTypes contains all valid page type values.
var ValidPageTypes = []string{PageTypePDP, PageTypeCart, PageTypeCheckout, PageTypeHome, PageTypeCategory, PageTypeSearch}

// IsValidPageType checks if the given page type is valid.
func IsValidPageType(pageType string) bool {
	for _, p := range ValidPageTypes {
		if p == pageType {
			return true
		}
	}
	return false
}

// DOMSelector is a catalog entry for a selector known to exist on a brand's pages.
type DOMSelector struct {
	ID             uuid.UUID `json:"id"`
	BrandID        uuid.UUID `json:"brand_id"`
	SelectorString string    `json:"selector_string"`
	PageType       string    `json:"page_type"`
	Status         string    `json:"status"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
