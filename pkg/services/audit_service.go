package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/repositories"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

// AuditService reads the transition audit trail. Entries are only written by
// ReviewService, inside the transition's transaction.
type AuditService interface {
	// List returns entries matching filters, newest first, and the unpaged total.
	List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLogEntry, int, error)

	// ListForCode returns the trail of one record if the actor may see its brand.
	ListForCode(ctx context.Context, codeID uuid.UUID, actor models.Actor, limit, offset int) ([]*models.AuditLogEntry, int, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
	codeRepo  repositories.GeneratedCodeRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo repositories.AuditRepository, codeRepo repositories.GeneratedCodeRepository, logger *zap.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		codeRepo:  codeRepo,
		logger:    logger.Named("audit-service"),
	}
}

var _ AuditService = (*auditService)(nil)

func (s *auditService) List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLogEntry, int, error) {
	if filters.Since != nil && filters.Until != nil && filters.Until.Before(*filters.Since) {
		return nil, 0, validation.NewInputError("until", "until must not be before since")
	}
	if filters.Action != "" && !models.IsValidAuditAction(filters.Action) {
		return nil, 0, validation.NewInputError("action", fmt.Sprintf("unknown audit action %q", filters.Action))
	}

	entries, total, err := s.auditRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, total, nil
}

func (s *auditService) ListForCode(ctx context.Context, codeID uuid.UUID, actor models.Actor, limit, offset int) ([]*models.AuditLogEntry, int, error) {
	code, err := s.codeRepo.GetByID(ctx, codeID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get generated code: %w", err)
	}
	if !actor.HasBrandAccess(code.BrandID) {
		return nil, 0, apperrors.ErrForbidden
	}

	return s.List(ctx, models.AuditFilters{
		GeneratedCodeID: &code.ID,
		Limit:           limit,
		Offset:          offset,
	})
}
