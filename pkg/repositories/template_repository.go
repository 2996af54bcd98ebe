package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// TemplateRepository provides read access to brand templates.
type TemplateRepository interface {
	// GetActive returns the most recently created active template for the
	// brand and test type, or nil if there is none.
	GetActive(ctx context.Context, brandID uuid.UUID, testType string) (*models.Template, error)
}

type templateRepository struct{}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository() TemplateRepository {
	return &templateRepository{}
}

var _ TemplateRepository = (*templateRepository)(nil)

func (r *templateRepository) GetActive(ctx context.Context, brandID uuid.UUID, testType string) (*models.Template, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, err
	}

	var t models.Template
	err = q.QueryRow(ctx, `
		SELECT id, brand_id, test_type, template_code, is_active, version, created_at
		FROM templates
		WHERE brand_id = $1 AND test_type = $2 AND is_active
		ORDER BY created_at DESC
		LIMIT 1`, brandID, testType).Scan(
		&t.ID, &t.BrandID, &t.TestType, &t.TemplateCode, &t.IsActive, &t.Version, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active template: %w", err)
	}
	return &t, nil
}
