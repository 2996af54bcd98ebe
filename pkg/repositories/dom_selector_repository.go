package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// DOMSelectorRepository provides read access to a brand's selector catalog.
type DOMSelectorRepository interface {
	// ListByPageType returns every catalog entry for the page type, whatever
	// its status, so callers can report why a selector is not usable.
	ListByPageType(ctx context.Context, brandID uuid.UUID, pageType string) ([]models.DOMSelector, error)
}

type domSelectorRepository struct{}

// NewDOMSelectorRepository creates a new DOMSelectorRepository.
func NewDOMSelectorRepository() DOMSelectorRepository {
	return &domSelectorRepository{}
}

var _ DOMSelectorRepository = (*domSelectorRepository)(nil)

func (r *domSelectorRepository) ListByPageType(ctx context.Context, brandID uuid.UUID, pageType string) ([]models.DOMSelector, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, brand_id, selector_string, page_type, status, COALESCE(description, ''), created_at
		FROM dom_selectors
		WHERE brand_id = $1 AND page_type = $2
		ORDER BY created_at ASC`, brandID, pageType)
	if err != nil {
		return nil, fmt.Errorf("failed to list dom selectors: %w", err)
	}
	defer rows.Close()

	selectors := []models.DOMSelector{}
	for rows.Next() {
		var s models.DOMSelector
		if err := rows.Scan(
			&s.ID, &s.BrandID, &s.SelectorString, &s.PageType, &s.Status, &s.Description, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dom selector: %w", err)
		}
		selectors = append(selectors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dom selectors: %w", err)
	}
	return selectors, nil
}
