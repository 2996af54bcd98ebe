package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// Audit page bounds.
const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 500
)

// AuditRepository provides access to the append-only code audit log.
// There is deliberately no update or delete.
type AuditRepository interface {
	// Create inserts a new entry and fills in its ID, Seq, and CreatedAt.
	Create(ctx context.Context, entry *models.AuditLogEntry) error

	// List returns entries newest first (by seq) with the total matching count.
	List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLogEntry, int, error)
}

type auditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err = q.QueryRow(ctx, `
		INSERT INTO code_audit_log (
			id, generated_code_id, brand_id, actor_id, action, previous_status, new_status, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`,
		entry.ID, entry.GeneratedCodeID, entry.BrandID, entry.ActorID, entry.Action,
		entry.PreviousStatus, entry.NewStatus, entry.Notes, entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLogEntry, int, error) {
	q, err := database.GetQuerier(ctx)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filters.Limit, filters.Offset, DefaultAuditPageSize, MaxAuditPageSize)

	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filters.GeneratedCodeID != nil {
		conditions = append(conditions, fmt.Sprintf("generated_code_id = $%d", argIdx))
		args = append(args, *filters.GeneratedCodeID)
		argIdx++
	}
	if filters.BrandID != nil {
		conditions = append(conditions, fmt.Sprintf("brand_id = $%d", argIdx))
		args = append(args, *filters.BrandID)
		argIdx++
	}
	if filters.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, *filters.ActorID)
		argIdx++
	}
	if filters.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argIdx))
		args = append(args, filters.Action)
		argIdx++
	}
	if filters.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *filters.Since)
		argIdx++
	}
	if filters.Until != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *filters.Until)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM code_audit_log WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, seq, generated_code_id, brand_id, actor_id, action, previous_status, new_status, notes, created_at
		FROM code_audit_log
		WHERE %s
		ORDER BY seq DESC
		LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit log entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.AuditLogEntry{}
	for rows.Next() {
		entry, err := scanAuditLogEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit log entries: %w", err)
	}
	return entries, total, nil
}

func scanAuditLogEntry(row pgx.Row) (*models.AuditLogEntry, error) {
	var e models.AuditLogEntry
	if err := row.Scan(
		&e.ID, &e.Seq, &e.GeneratedCodeID, &e.BrandID, &e.ActorID, &e.Action,
		&e.PreviousStatus, &e.NewStatus, &e.Notes, &e.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
	}
	return &e, nil
}
