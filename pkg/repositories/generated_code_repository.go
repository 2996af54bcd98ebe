package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// Listing page bounds for generated code.
const (
	DefaultCodePageSize = 50
	MaxCodePageSize     = 200
)

// GeneratedCodeRepository provides data access for generated code records.
// The score and breakdown are written once by Create; there is no path that
// rewrites them.
type GeneratedCodeRepository interface {
	Create(ctx context.Context, code *models.GeneratedCode) error

	// GetByID returns apperrors.ErrNotFound when the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedCode, error)

	// ListByBrand returns records newest first with the total matching count.
	ListByBrand(ctx context.Context, brandID uuid.UUID, filters models.GeneratedCodeFilters) ([]*models.GeneratedCode, int, error)

	// ApplyStatusChange moves the record from change.From to change.To only if
	// its status is still change.From. It returns apperrors.ErrStaleStatus
	// when the precondition no longer holds.
	ApplyStatusChange(ctx context.Context, change models.StatusChange) (*models.GeneratedCode, error)
}

type generatedCodeRepository struct{}

// NewGeneratedCodeRepository creates a new GeneratedCodeRepository.
func NewGeneratedCodeRepository() GeneratedCodeRepository {
	return &generatedCodeRepository{}
}

var _ GeneratedCodeRepository = (*generatedCodeRepository)(nil)

const generatedCodeColumns = `
	id, brand_id, conversation_id, test_type, page_type, request_metadata, generated_code,
	confidence_score, confidence_breakdown, requires_review, status, created_by,
	reviewer_id, reviewed_at, reviewer_notes, approved_at, rejection_reason, deployed_at,
	created_at, updated_at`

func (r *generatedCodeRepository) Create(ctx context.Context, code *models.GeneratedCode) error {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return err
	}

	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	if code.Status == "" {
		code.Status = models.StatusGenerated
	}
	if code.RequestMetadata == nil {
		code.RequestMetadata = map[string]any{}
	}
	now := time.Now().UTC()
	code.CreatedAt = now
	code.UpdatedAt = now

	_, err = q.Exec(ctx, `
		INSERT INTO generated_code (
			id, brand_id, conversation_id, test_type, page_type, request_metadata, generated_code,
			confidence_score, confidence_breakdown, requires_review, status, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		code.ID, code.BrandID, code.ConversationID, code.TestType, code.PageType, code.RequestMetadata,
		code.Code, code.ConfidenceScore, code.Breakdown, code.RequiresReview, code.Status, code.CreatedBy,
		code.CreatedAt, code.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create generated code: %w", err)
	}
	return nil
}

func (r *generatedCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedCode, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `SELECT `+generatedCodeColumns+` FROM generated_code WHERE id = $1`, id)
	code, err := scanGeneratedCode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generated code: %w", err)
	}
	return code, nil
}

func (r *generatedCodeRepository) ListByBrand(ctx context.Context, brandID uuid.UUID, filters models.GeneratedCodeFilters) ([]*models.GeneratedCode, int, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filters.Limit, filters.Offset, DefaultCodePageSize, MaxCodePageSize)

	where := "brand_id = $1"
	args := []any{brandID}
	if filters.Status != nil {
		where += " AND status = $2"
		args = append(args, *filters.Status)
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM generated_code WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count generated code: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM generated_code WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		generatedCodeColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list generated code: %w", err)
	}
	defer rows.Close()

	results := []*models.GeneratedCode{}
	for rows.Next() {
		code, err := scanGeneratedCode(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan generated code: %w", err)
		}
		results = append(results, code)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating generated code: %w", err)
	}
	return results, total, nil
}

func (r *generatedCodeRepository) ApplyStatusChange(ctx context.Context, change models.StatusChange) (*models.GeneratedCode, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, err
	}

	// $5 is the transition time; each target stamps only the columns it owns.
	row := q.QueryRow(ctx, `
		UPDATE generated_code SET
			status           = $3,
			reviewer_id      = CASE WHEN $3 IN ('reviewed', 'approved', 'rejected') THEN $4 ELSE reviewer_id END,
			reviewed_at      = CASE WHEN $3 IN ('reviewed', 'approved', 'rejected') THEN $5 ELSE reviewed_at END,
			approved_at      = CASE WHEN $3 = 'approved' THEN $5 ELSE approved_at END,
			deployed_at      = CASE WHEN $3 = 'deployed' THEN $5 ELSE deployed_at END,
			rejection_reason = CASE WHEN $3 = 'rejected' THEN $7 ELSE rejection_reason END,
			reviewer_notes   = COALESCE($6, reviewer_notes),
			updated_at       = $5
		WHERE id = $1 AND status = $2
		RETURNING `+generatedCodeColumns,
		change.CodeID, change.From, change.To, change.ReviewerID, change.At,
		change.ReviewerNotes, change.RejectionReason,
	)

	code, err := scanGeneratedCode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStaleStatus
		}
		return nil, fmt.Errorf("failed to apply status change: %w", err)
	}
	return code, nil
}

func scanGeneratedCode(row pgx.Row) (*models.GeneratedCode, error) {
	var c models.GeneratedCode
	err := row.Scan(
		&c.ID, &c.BrandID, &c.ConversationID, &c.TestType, &c.PageType, &c.RequestMetadata, &c.Code,
		&c.ConfidenceScore, &c.Breakdown, &c.RequiresReview, &c.Status, &c.CreatedBy,
		&c.ReviewerID, &c.ReviewedAt, &c.ReviewerNotes, &c.ApprovedAt, &c.RejectionReason, &c.DeployedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// normalizePage clamps paging parameters to [1, maxLimit] and a non-negative offset.
func normalizePage(limit, offset, defaultLimit, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
