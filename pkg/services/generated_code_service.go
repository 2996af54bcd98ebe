package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/audit"
	"github.com/ekaya-inc/safecode-engine/pkg/events"
	"github.com/ekaya-inc/safecode-engine/pkg/logging"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/repositories"
)

// IngestRequest is a drafted snippet handed over for scoring and storage.
type IngestRequest struct {
	BrandID         uuid.UUID
	ConversationID  *uuid.UUID
	TestType        string
	Code            string
	RequestMetadata map[string]any
	Actor           models.Actor
}

// GeneratedCodeService stores scored snippets and serves them back.
type GeneratedCodeService interface {
	// Ingest scores code and persists it with status generated.
	Ingest(ctx context.Context, req IngestRequest) (*models.GeneratedCode, error)

	// Get returns one record if the actor may see its brand.
	Get(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.GeneratedCode, error)

	// List returns a brand's records, newest first, and the unpaged total.
	List(ctx context.Context, brandID uuid.UUID, actor models.Actor, filters models.GeneratedCodeFilters) ([]*models.GeneratedCode, int, error)
}

type generatedCodeService struct {
	validation ValidationService
	codeRepo   repositories.GeneratedCodeRepository
	publisher  events.Publisher
	security   *audit.SecurityAuditor
	logger     *zap.Logger
}

// GeneratedCodeServiceDeps contains dependencies for GeneratedCodeService.
type GeneratedCodeServiceDeps struct {
	Validation ValidationService
	CodeRepo   repositories.GeneratedCodeRepository
	Publisher  events.Publisher       // Optional: defaults to a no-op publisher
	Security   *audit.SecurityAuditor // Optional: nil disables security events
	Logger     *zap.Logger
}

// NewGeneratedCodeService creates a new GeneratedCodeService.
func NewGeneratedCodeService(deps *GeneratedCodeServiceDeps) GeneratedCodeService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &generatedCodeService{
		validation: deps.Validation,
		codeRepo:   deps.CodeRepo,
		publisher:  publisher,
		security:   deps.Security,
		logger:     deps.Logger.Named("generated-code-service"),
	}
}

var _ GeneratedCodeService = (*generatedCodeService)(nil)

func (s *generatedCodeService) Ingest(ctx context.Context, req IngestRequest) (*models.GeneratedCode, error) {
	if !req.Actor.CanAuthor(req.BrandID) {
		s.security.LogAccessDenied(req.Actor, req.BrandID, "ingest")
		return nil, apperrors.ErrForbidden
	}

	scored, err := s.validation.Score(ctx, ScoreRequest{
		BrandID:         req.BrandID,
		TestType:        req.TestType,
		Code:            req.Code,
		RequestMetadata: req.RequestMetadata,
	})
	if err != nil {
		return nil, err
	}

	actorID := req.Actor.ID
	code := &models.GeneratedCode{
		ID:              uuid.New(),
		BrandID:         req.BrandID,
		ConversationID:  req.ConversationID,
		TestType:        req.TestType,
		PageType:        scored.PageType,
		RequestMetadata: req.RequestMetadata,
		Code:            req.Code,
		ConfidenceScore: scored.Breakdown.OverallScore,
		Breakdown:       scored.Breakdown,
		RequiresReview:  scored.Breakdown.RequiresReview,
		Status:          models.StatusGenerated,
		CreatedBy:       &actorID,
	}

	if err := s.codeRepo.Create(ctx, code); err != nil {
		s.logger.Error("Failed to store generated code",
			zap.String("brand_id", req.BrandID.String()),
			zap.String("code_preview", logging.CodePreview(req.Code)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store generated code: %w", err)
	}

	s.logger.Info("Ingested generated code",
		zap.String("id", code.ID.String()),
		zap.String("brand_id", code.BrandID.String()),
		zap.Float64("confidence_score", code.ConfidenceScore),
		zap.String("recommendation", string(code.Breakdown.Recommendation)),
		zap.Bool("requires_review", code.RequiresReview))
	s.security.LogSuspectedInjection(req.Actor, code)

	if code.RequiresReview {
		s.publish(ctx, models.CodeEvent{
			Type:            models.EventReviewRequired,
			GeneratedCodeID: code.ID,
			BrandID:         code.BrandID,
			ActorID:         &actorID,
			Status:          code.Status,
			Reason:          "user-provided selectors need review",
			OccurredAt:      time.Now().UTC(),
		})
	}

	return code, nil
}

func (s *generatedCodeService) Get(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.GeneratedCode, error) {
	code, err := s.codeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get generated code: %w", err)
	}
	if !actor.HasBrandAccess(code.BrandID) {
		s.security.LogAccessDenied(actor, code.BrandID, "get")
		return nil, apperrors.ErrForbidden
	}
	return code, nil
}

func (s *generatedCodeService) List(ctx context.Context, brandID uuid.UUID, actor models.Actor, filters models.GeneratedCodeFilters) ([]*models.GeneratedCode, int, error) {
	if !actor.HasBrandAccess(brandID) {
		s.security.LogAccessDenied(actor, brandID, "list")
		return nil, 0, apperrors.ErrForbidden
	}
	codes, total, err := s.codeRepo.ListByBrand(ctx, brandID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list generated code: %w", err)
	}
	return codes, total, nil
}

func (s *generatedCodeService) publish(ctx context.Context, event models.CodeEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish code event",
			zap.String("type", event.Type),
			zap.String("generated_code_id", event.GeneratedCodeID.String()),
			zap.Error(err))
	}
}
