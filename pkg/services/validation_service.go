package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/metrics"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/repositories"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

// ScoreRequest is one snippet to score against a brand's catalog.
type ScoreRequest struct {
	BrandID         uuid.UUID
	TestType        string
	Code            string
	RequestMetadata map[string]any
}

// ScoreResult is the breakdown plus the page type the selectors were checked against.
type ScoreResult struct {
	Brand     *models.Brand
	PageType  string
	Breakdown *models.ConfidenceBreakdown
}

// ValidationService loads a brand's rules, selectors, and template and scores code against them.
// It never persists anything.
type ValidationService interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error)
}

type validationService struct {
	brandRepo    repositories.BrandRepository
	ruleRepo     repositories.CodeRuleRepository
	selectorRepo repositories.DOMSelectorRepository
	templateRepo repositories.TemplateRepository
	logger       *zap.Logger
}

// ValidationServiceDeps contains dependencies for ValidationService.
type ValidationServiceDeps struct {
	BrandRepo    repositories.BrandRepository
	RuleRepo     repositories.CodeRuleRepository
	SelectorRepo repositories.DOMSelectorRepository
	TemplateRepo repositories.TemplateRepository
	Logger       *zap.Logger
}

// NewValidationService creates a new ValidationService.
func NewValidationService(deps *ValidationServiceDeps) ValidationService {
	return &validationService{
		brandRepo:    deps.BrandRepo,
		ruleRepo:     deps.RuleRepo,
		selectorRepo: deps.SelectorRepo,
		templateRepo: deps.TemplateRepo,
		logger:       deps.Logger.Named("validation-service"),
	}
}

var _ ValidationService = (*validationService)(nil)

func (s *validationService) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	// Reject unscorable input before touching the database.
	in := validation.Input{
		Code:     req.Code,
		TestType: req.TestType,
		Metadata: req.RequestMetadata,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	brand, err := loadActiveBrand(ctx, s.brandRepo, req.BrandID)
	if err != nil {
		return nil, err
	}

	pageType := ResolvePageType(req.TestType, req.RequestMetadata)

	rules, err := s.ruleRepo.ListActiveByBrand(ctx, brand.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load code rules: %w", err)
	}
	in.Rules = rules

	template, err := s.templateRepo.GetActive(ctx, brand.ID, req.TestType)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	in.Template = template

	in.Catalog = validation.SelectorCatalog{PageType: pageType}
	selectors, err := s.selectorRepo.ListByPageType(ctx, brand.ID, pageType)
	if err != nil {
		s.logger.Warn("Selector catalog unavailable, scoring selectors as unvalidated",
			zap.String("brand_id", brand.ID.String()),
			zap.String("page_type", pageType),
			zap.Error(err))
		metrics.CatalogUnavailable.Inc()
		in.Catalog.Err = err
	} else {
		in.Catalog.Selectors = selectors
	}

	breakdown, err := validation.Evaluate(in)
	if err != nil {
		return nil, err
	}

	metrics.ScoringRuns.WithLabelValues(string(breakdown.Recommendation), string(breakdown.ValidationStatus)).Inc()
	metrics.OverallScore.Observe(breakdown.OverallScore)
	if n := len(breakdown.SkippedRules); n > 0 {
		metrics.SkippedRules.Add(float64(n))
		s.logger.Warn("Skipped malformed code rules",
			zap.String("brand_id", brand.ID.String()),
			zap.Int("count", n))
	}

	s.logger.Debug("Scored snippet",
		zap.String("brand_id", brand.ID.String()),
		zap.String("test_type", req.TestType),
		zap.Float64("overall_score", breakdown.OverallScore),
		zap.String("recommendation", string(breakdown.Recommendation)))

	return &ScoreResult{
		Brand:     brand,
		PageType:  pageType,
		Breakdown: breakdown,
	}, nil
}

// ResolvePageType returns metadata["page_type"] when it names a known page
// type and otherwise the page type sharing the test type's name.
func ResolvePageType(testType string, metadata map[string]any) string {
	if pt, ok := metadata["page_type"].(string); ok && models.IsValidPageType(pt) {
		return pt
	}
	return testType
}

func loadActiveBrand(ctx context.Context, repo repositories.BrandRepository, brandID uuid.UUID) (*models.Brand, error) {
	if brandID == uuid.Nil {
		return nil, validation.NewInputError("brand_id", "brand context is required")
	}
	brand, err := repo.GetByID(ctx, brandID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, validation.NewInputError("brand_id", "brand not found")
		}
		return nil, fmt.Errorf("failed to load brand: %w", err)
	}
	if !brand.IsActive() {
		return nil, validation.NewInputError("brand_id", apperrors.ErrBrandInactive.Error())
	}
	return brand, nil
}
