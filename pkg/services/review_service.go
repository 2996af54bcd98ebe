package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/audit"
	"github.com/ekaya-inc/safecode-engine/pkg/database"
	"github.com/ekaya-inc/safecode-engine/pkg/events"
	"github.com/ekaya-inc/safecode-engine/pkg/metrics"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/repositories"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

// TransitionRequest asks to move one record to TargetStatus.
// ExpectedStatus, when set, must match the stored status.
type TransitionRequest struct {
	CodeID          uuid.UUID
	Actor           models.Actor
	TargetStatus    models.CodeStatus
	ExpectedStatus  *models.CodeStatus
	Notes           *string
	RejectionReason *string
}

// TransitionResult is the updated record and the audit entry written with it.
type TransitionResult struct {
	Code  *models.GeneratedCode `json:"generated_code"`
	Audit *models.AuditLogEntry `json:"audit_entry"`
}

// TransitionOptions lists what the actor may do with a record right now.
type TransitionOptions struct {
	CodeID  uuid.UUID           `json:"generated_code_id"`
	Current models.CodeStatus   `json:"status"`
	Targets []models.CodeStatus `json:"available_transitions"`
}

// ReviewService drives the review lifecycle of generated code.
// Every accepted transition writes exactly one audit entry in the same transaction.
type ReviewService interface {
	Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)

	// AvailableTransitions returns the legal targets the actor's role permits.
	AvailableTransitions(ctx context.Context, codeID uuid.UUID, actor models.Actor) (*TransitionOptions, error)
}

type reviewService struct {
	codeRepo  repositories.GeneratedCodeRepository
	auditRepo repositories.AuditRepository
	tx        database.TxRunner
	publisher events.Publisher
	security  *audit.SecurityAuditor
	now       func() time.Time
	logger    *zap.Logger
}

// ReviewServiceDeps contains dependencies for ReviewService.
type ReviewServiceDeps struct {
	CodeRepo  repositories.GeneratedCodeRepository
	AuditRepo repositories.AuditRepository
	TxRunner  database.TxRunner
	Publisher events.Publisher       // Optional: defaults to a no-op publisher
	Security  *audit.SecurityAuditor // Optional: nil disables security events
	Now       func() time.Time       // Optional: defaults to time.Now
	Logger    *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(deps *ReviewServiceDeps) ReviewService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &reviewService{
		codeRepo:  deps.CodeRepo,
		auditRepo: deps.AuditRepo,
		tx:        deps.TxRunner,
		publisher: publisher,
		security:  deps.Security,
		now:       now,
		logger:    deps.Logger.Named("review-service"),
	}
}

var _ ReviewService = (*reviewService)(nil)

func (s *reviewService) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	target := req.TargetStatus

	code, err := s.codeRepo.GetByID(ctx, req.CodeID)
	if err != nil {
		s.record(target, err)
		return nil, fmt.Errorf("failed to get generated code: %w", err)
	}
	if !req.Actor.HasBrandAccess(code.BrandID) {
		s.security.LogAccessDenied(req.Actor, code.BrandID, "transition")
		s.record(target, apperrors.ErrForbidden)
		return nil, apperrors.ErrForbidden
	}
	from := code.Status

	if req.ExpectedStatus != nil && *req.ExpectedStatus != from {
		s.record(target, apperrors.ErrStaleStatus)
		return nil, apperrors.ErrStaleStatus
	}

	if !models.IsLegalTransition(from, target) {
		err := &StateTransitionError{From: from, To: target, Allowed: models.LegalTargets(from)}
		s.record(target, err)
		return nil, err
	}

	if !req.Actor.CanTransitionTo(code.BrandID, target) {
		err := &TransitionForbiddenError{ActorID: req.Actor.ID, Role: req.Actor.Role, To: target}
		s.security.LogTransitionDenied(req.Actor, code.BrandID, code.ID, target)
		s.record(target, err)
		return nil, err
	}

	notes := trimmed(req.Notes)
	reason := trimmed(req.RejectionReason)
	if target == models.StatusRejected {
		if reason == nil {
			reason = notes
		}
		if reason == nil {
			return nil, validation.NewInputError("rejection_reason", "a reason is required to reject code")
		}
	} else {
		reason = nil
	}

	at := s.now().UTC()
	actorID := req.Actor.ID
	change := models.StatusChange{
		CodeID:          code.ID,
		From:            from,
		To:              target,
		ReviewerID:      &actorID,
		ReviewerNotes:   notes,
		RejectionReason: reason,
		At:              at,
	}
	// Deployment notes go to the audit trail only; reviewer_notes stays the reviewer's.
	if target == models.StatusDeployed {
		change.ReviewerNotes = nil
	}

	auditNotes := notes
	if target == models.StatusRejected && auditNotes == nil {
		auditNotes = reason
	}
	entry := &models.AuditLogEntry{
		ID:              uuid.New(),
		GeneratedCodeID: code.ID,
		BrandID:         code.BrandID,
		ActorID:         actorID,
		Action:          models.ActionForTarget(target),
		PreviousStatus:  from,
		NewStatus:       target,
		Notes:           auditNotes,
		CreatedAt:       at,
	}

	var updated *models.GeneratedCode
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.codeRepo.ApplyStatusChange(ctx, change)
		if err != nil {
			return err
		}
		if err := s.auditRepo.Create(ctx, entry); err != nil {
			return &AuditWriteFailure{Cause: err}
		}
		return nil
	})
	if err != nil {
		s.record(target, err)
		if errors.Is(err, apperrors.ErrStaleStatus) {
			return nil, apperrors.ErrStaleStatus
		}
		var auditErr *AuditWriteFailure
		if errors.As(err, &auditErr) {
			s.logger.Error("Audit write failed, transition rolled back",
				zap.String("generated_code_id", code.ID.String()),
				zap.String("target", string(target)),
				zap.Error(auditErr.Cause))
			return nil, auditErr
		}
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}
	s.record(target, nil)

	s.logger.Info("Transitioned generated code",
		zap.String("generated_code_id", code.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actorID.String()),
		zap.Int64("audit_seq", entry.Seq))

	if eventType := eventForTarget(target); eventType != "" {
		event := models.CodeEvent{
			Type:            eventType,
			GeneratedCodeID: code.ID,
			BrandID:         code.BrandID,
			ActorID:         &actorID,
			Status:          target,
			OccurredAt:      at,
		}
		if reason != nil {
			event.Reason = *reason
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish code event",
				zap.String("type", eventType),
				zap.String("generated_code_id", code.ID.String()),
				zap.Error(err))
		}
	}

	return &TransitionResult{Code: updated, Audit: entry}, nil
}

func (s *reviewService) AvailableTransitions(ctx context.Context, codeID uuid.UUID, actor models.Actor) (*TransitionOptions, error) {
	code, err := s.codeRepo.GetByID(ctx, codeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get generated code: %w", err)
	}
	if !actor.HasBrandAccess(code.BrandID) {
		s.security.LogAccessDenied(actor, code.BrandID, "transitions")
		return nil, apperrors.ErrForbidden
	}

	targets := []models.CodeStatus{}
	for _, t := range models.LegalTargets(code.Status) {
		if actor.CanTransitionTo(code.BrandID, t) {
			targets = append(targets, t)
		}
	}
	return &TransitionOptions{CodeID: code.ID, Current: code.Status, Targets: targets}, nil
}

func (s *reviewService) record(target models.CodeStatus, err error) {
	outcome := metrics.OutcomeAccepted
	var stateErr *StateTransitionError
	var forbiddenErr *TransitionForbiddenError
	switch {
	case err == nil:
	case errors.As(err, &stateErr):
		outcome = metrics.OutcomeIllegal
	case errors.As(err, &forbiddenErr), errors.Is(err, apperrors.ErrForbidden):
		outcome = metrics.OutcomeForbidden
	case errors.Is(err, apperrors.ErrStaleStatus):
		outcome = metrics.OutcomeStale
	default:
		outcome = metrics.OutcomeError
	}
	metrics.Transitions.WithLabelValues(string(target), outcome).Inc()
}

func eventForTarget(target models.CodeStatus) string {
	switch target {
	case models.StatusApproved:
		return models.EventApproved
	case models.StatusRejected:
		return models.EventRejected
	default:
		return ""
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
