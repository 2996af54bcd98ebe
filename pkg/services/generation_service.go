package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/llm"
	"github.com/ekaya-inc/safecode-engine/pkg/metrics"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/repositories"
	"github.com/ekaya-inc/safecode-engine/pkg/retry"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

// GenerationRequest asks the upstream model to draft a snippet for a brand.
type GenerationRequest struct {
	BrandID         uuid.UUID
	ConversationID  *uuid.UUID
	TestType        string
	Prompt          string
	RequestMetadata map[string]any
	Actor           models.Actor
}

// GenerationService drafts code with the configured provider and ingests the result.
type GenerationService interface {
	Generate(ctx context.Context, req GenerationRequest) (*models.GeneratedCode, error)

	// Enabled reports whether a provider is configured.
	Enabled() bool
}

type generationService struct {
	generator    llm.CodeGenerator
	ingest       GeneratedCodeService
	brandRepo    repositories.BrandRepository
	ruleRepo     repositories.CodeRuleRepository
	selectorRepo repositories.DOMSelectorRepository
	templateRepo repositories.TemplateRepository
	timeout      time.Duration
	retryCfg     retry.Config
	logger       *zap.Logger
}

// GenerationServiceDeps contains dependencies for GenerationService.
type GenerationServiceDeps struct {
	Generator    llm.CodeGenerator // Optional: nil disables generation
	Ingest       GeneratedCodeService
	BrandRepo    repositories.BrandRepository
	RuleRepo     repositories.CodeRuleRepository
	SelectorRepo repositories.DOMSelectorRepository
	TemplateRepo repositories.TemplateRepository
	Timeout      time.Duration
	MaxRetries   int
	Retry        *retry.Config // Optional: overrides the backoff derived from MaxRetries
	Logger       *zap.Logger
}

// NewGenerationService creates a new GenerationService.
func NewGenerationService(deps *GenerationServiceDeps) GenerationService {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	retryCfg := retry.GenerationConfig(deps.MaxRetries)
	if deps.Retry != nil {
		retryCfg = deps.Retry
	}
	return &generationService{
		generator:    deps.Generator,
		ingest:       deps.Ingest,
		brandRepo:    deps.BrandRepo,
		ruleRepo:     deps.RuleRepo,
		selectorRepo: deps.SelectorRepo,
		templateRepo: deps.TemplateRepo,
		timeout:      timeout,
		retryCfg:     *retryCfg,
		logger:       deps.Logger.Named("generation-service"),
	}
}

var _ GenerationService = (*generationService)(nil)

func (s *generationService) Enabled() bool {
	return s.generator != nil
}

func (s *generationService) Generate(ctx context.Context, req GenerationRequest) (*models.GeneratedCode, error) {
	if s.generator == nil {
		return nil, ErrGenerationDisabled
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, validation.NewInputError("prompt", "prompt must not be empty")
	}
	if !models.IsValidTestType(req.TestType) {
		return nil, validation.NewInputError("test_type", fmt.Sprintf("unknown test type %q", req.TestType))
	}
	if !req.Actor.CanAuthor(req.BrandID) {
		return nil, apperrors.ErrForbidden
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
	template, err := s.templateRepo.GetActive(ctx, brand.ID, req.TestType)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	selectors, err := s.selectorRepo.ListByPageType(ctx, brand.ID, pageType)
	if err != nil {
		// The draft is still scored afterwards; the prompt just offers no selectors.
		s.logger.Warn("Selector catalog unavailable for prompt",
			zap.String("brand_id", brand.ID.String()),
			zap.Error(err))
		selectors = nil
	}

	prompt := llm.BuildPrompt(llm.PromptInput{
		BrandName: brand.Name,
		TestType:  req.TestType,
		PageType:  pageType,
		Request:   req.Prompt,
		Template:  template,
		Selectors: selectors,
		Rules:     rules,
		Metadata:  req.RequestMetadata,
	})

	retryCfg := s.retryCfg
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.logger.Warn("Retrying code generation",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	start := time.Now()
	result, err := retry.DoIfRetryableWithResult(ctx, &retryCfg, func() (*llm.GenerateResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		res, err := s.generator.Generate(callCtx, prompt)
		if err != nil {
			return nil, llm.ClassifyError(err)
		}
		return res, nil
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GenerationDuration.WithLabelValues(s.generator.Provider(), outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Code generation failed",
			zap.String("brand_id", brand.ID.String()),
			zap.String("provider", s.generator.Provider()),
			zap.String("model", s.generator.Model()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	code := llm.ExtractCode(result.Content)
	if code == "" {
		return nil, ErrEmptyGeneration
	}

	return s.ingest.Ingest(ctx, IngestRequest{
		BrandID:         brand.ID,
		ConversationID:  req.ConversationID,
		TestType:        req.TestType,
		Code:            code,
		RequestMetadata: generationMetadata(req, s.generator),
		Actor:           req.Actor,
	})
}

// generationMetadata records the user's prompt alongside the caller's metadata
// so selectors the user named are recognised as user provided.
func generationMetadata(req GenerationRequest, gen llm.CodeGenerator) map[string]any {
	out := make(map[string]any, len(req.RequestMetadata)+2)
	for k, v := range req.RequestMetadata {
		out[k] = v
	}
	if _, ok := out["prompt"]; !ok {
		out["prompt"] = req.Prompt
	}
	out["generator"] = map[string]any{
		"provider": gen.Provider(),
		"model":    gen.Model(),
	}
	return out
}
