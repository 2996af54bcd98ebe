package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// BrandRepository provides read access to brands.
type BrandRepository interface {
	// GetByID returns apperrors.ErrNotFound when the brand does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error)
}

type brandRepository struct{}

// NewBrandRepository creates a new BrandRepository.
func NewBrandRepository() BrandRepository {
	return &brandRepository{}
}

var _ BrandRepository = (*brandRepository)(nil)

func (r *brandRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, err
	}

	var b models.Brand
	err = q.QueryRow(ctx, `
		SELECT id, name, status, created_at
		FROM brands
		WHERE id = $1`, id).Scan(&b.ID, &b.Name, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return &b, nil
}
