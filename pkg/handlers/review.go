package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/auth"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
)

// TransitionRequest is the body of POST /api/generated-code/{id}/transition.
type TransitionRequest struct {
	TargetStatus    models.CodeStatus  `json:"target_status"`
	ExpectedStatus  *models.CodeStatus `json:"expected_status,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
}

// ReviewHandler serves the review lifecycle endpoints.
type ReviewHandler struct {
	reviewService services.ReviewService
	logger        *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService services.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.Named("review-handler"),
	}
}

// RegisterRoutes registers the review routes. Brand access is checked by the
// service once the record's brand is known.
func (h *ReviewHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/generated-code/{id}/transitions",
		authMiddleware.RequireAuth(scope(h.AvailableTransitions)))
	mux.HandleFunc("POST /api/generated-code/{id}/transition",
		authMiddleware.RequireAuth(scope(h.Transition)))
}

// AvailableTransitions handles GET /api/generated-code/{id}/transitions
func (h *ReviewHandler) AvailableTransitions(w http.ResponseWriter, r *http.Request) {
	codeID, ok := ParseCodeID(w, r, h.logger)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	opts, err := h.reviewService.AvailableTransitions(r.Context(), codeID, actor)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list transitions",
			zap.String("id", codeID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: opts}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Transition handles POST /api/generated-code/{id}/transition
func (h *ReviewHandler) Transition(w http.ResponseWriter, r *http.Request) {
	codeID, ok := ParseCodeID(w, r, h.logger)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req TransitionRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if !req.TargetStatus.IsValid() {
		badRequest(w, "invalid_status", "Unknown target_status "+string(req.TargetStatus), h.logger)
		return
	}
	if req.ExpectedStatus != nil && !req.ExpectedStatus.IsValid() {
		badRequest(w, "invalid_status", "Unknown expected_status "+string(*req.ExpectedStatus), h.logger)
		return
	}

	result, err := h.reviewService.Transition(r.Context(), services.TransitionRequest{
		CodeID:          codeID,
		Actor:           actor,
		TargetStatus:    req.TargetStatus,
		ExpectedStatus:  req.ExpectedStatus,
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		writeServiceError(w, err, h.logger, "Transition failed",
			zap.String("id", codeID.String()),
			zap.String("target", string(req.TargetStatus)),
			zap.String("actor_id", actor.ID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
