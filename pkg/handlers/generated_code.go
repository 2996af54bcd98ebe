package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/auth"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
)

// ScopeMiddleware attaches a database scope to the request context.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// IngestCodeRequest is the body of POST /api/brands/{bid}/generated-code.
type IngestCodeRequest struct {
	ConversationID  *uuid.UUID     `json:"conversation_id,omitempty"`
	TestType        string         `json:"test_type"`
	RawCode         string         `json:"raw_code"`
	RequestMetadata map[string]any `json:"request_metadata,omitempty"`
}

// GenerateCodeRequest is the body of POST /api/brands/{bid}/generated-code/generate.
type GenerateCodeRequest struct {
	ConversationID  *uuid.UUID     `json:"conversation_id,omitempty"`
	TestType        string         `json:"test_type"`
	Prompt          string         `json:"prompt"`
	RequestMetadata map[string]any `json:"request_metadata,omitempty"`
}

// ValidateCodeRequest is the body of POST /api/brands/{bid}/validate.
type ValidateCodeRequest struct {
	TestType        string         `json:"test_type"`
	RawCode         string         `json:"raw_code"`
	RequestMetadata map[string]any `json:"request_metadata,omitempty"`
}

// ValidateCodeResponse is a dry-run scoring result. Nothing is stored.
type ValidateCodeResponse struct {
	PageType  string                      `json:"page_type"`
	Breakdown *models.ConfidenceBreakdown `json:"confidence_breakdown"`
}

// GeneratedCodeListResponse is one page of generated code.
type GeneratedCodeListResponse struct {
	Items []*models.GeneratedCode `json:"items"`
	Total int                     `json:"total"`
}

// GeneratedCodeHandler serves ingestion, generation, dry-run validation, and reads.
type GeneratedCodeHandler struct {
	codeService       services.GeneratedCodeService
	validationService services.ValidationService
	generationService services.GenerationService
	logger            *zap.Logger
}

// NewGeneratedCodeHandler creates a new GeneratedCodeHandler.
func NewGeneratedCodeHandler(
	codeService services.GeneratedCodeService,
	validationService services.ValidationService,
	generationService services.GenerationService,
	logger *zap.Logger,
) *GeneratedCodeHandler {
	return &GeneratedCodeHandler{
		codeService:       codeService,
		validationService: validationService,
		generationService: generationService,
		logger:            logger.Named("generated-code-handler"),
	}
}

// RegisterRoutes registers the generated code routes.
func (h *GeneratedCodeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	brandBase := "/api/brands/{bid}"

	mux.HandleFunc("POST "+brandBase+"/generated-code",
		authMiddleware.RequireBrandAccess("bid")(scope(h.Ingest)))
	mux.HandleFunc("POST "+brandBase+"/generated-code/generate",
		authMiddleware.RequireBrandAccess("bid")(scope(h.Generate)))
	mux.HandleFunc("GET "+brandBase+"/generated-code",
		authMiddleware.RequireBrandAccess("bid")(scope(h.List)))
	mux.HandleFunc("POST "+brandBase+"/validate",
		authMiddleware.RequireBrandAccess("bid")(scope(h.Validate)))
	mux.HandleFunc("GET /api/generated-code/{id}",
		authMiddleware.RequireAuth(scope(h.Get)))
}

// Ingest handles POST /api/brands/{bid}/generated-code
func (h *GeneratedCodeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	brandID, ok := ParseBrandID(w, r, h.logger)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req IngestCodeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	code, err := h.codeService.Ingest(r.Context(), services.IngestRequest{
		BrandID:         brandID,
		ConversationID:  req.ConversationID,
		TestType:        req.TestType,
		Code:            req.RawCode,
		RequestMetadata: req.RequestMetadata,
		Actor:           actor,
	})
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to ingest generated code",
			zap.String("brand_id", brandID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: code}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Generate handles POST /api/brands/{bid}/generated-code/generate
func (h *GeneratedCodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	brandID, ok := ParseBrandID(w, r, h.logger)
	if !ok {
		return
	}
	if h.generationService == nil || !h.generationService.Enabled() {
		writeServiceError(w, services.ErrGenerationDisabled, h.logger, "Generation requested but not configured")
		return
	}
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req GenerateCodeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	code, err := h.generationService.Generate(r.Context(), services.GenerationRequest{
		BrandID:         brandID,
		ConversationID:  req.ConversationID,
		TestType:        req.TestType,
		Prompt:          req.Prompt,
		RequestMetadata: req.RequestMetadata,
		Actor:           actor,
	})
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to generate code",
			zap.String("brand_id", brandID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: code}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Validate handles POST /api/brands/{bid}/validate
func (h *GeneratedCodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	brandID, ok := ParseBrandID(w, r, h.logger)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	if !actor.CanAuthor(brandID) {
		writeServiceError(w, apperrors.ErrForbidden, h.logger, "Validation denied",
			zap.String("brand_id", brandID.String()))
		return
	}

	var req ValidateCodeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	res, err := h.validationService.Score(r.Context(), services.ScoreRequest{
		BrandID:         brandID,
		TestType:        req.TestType,
		Code:            req.RawCode,
		RequestMetadata: req.RequestMetadata,
	})
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to validate code",
			zap.String("brand_id", brandID.String()))
		return
	}

	resp := ValidateCodeResponse{PageType: res.PageType, Breakdown: res.Breakdown}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resp}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/brands/{bid}/generated-code
func (h *GeneratedCodeHandler) List(w http.ResponseWriter, r *http.Request) {
	brandID, ok := ParseBrandID(w, r, h.logger)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	page, ok := ParsePage(w, r, h.logger)
	if !ok {
		return
	}

	filters := models.GeneratedCodeFilters{Limit: page.Limit, Offset: page.Offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.CodeStatus(raw)
		if !status.IsValid() {
			badRequest(w, "invalid_status", "Unknown status "+raw, h.logger)
			return
		}
		filters.Status = &status
	}

	codes, total, err := h.codeService.List(r.Context(), brandID, actor, filters)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list generated code",
			zap.String("brand_id", brandID.String()))
		return
	}
	if codes == nil {
		codes = []*models.GeneratedCode{}
	}

	resp := GeneratedCodeListResponse{Items: codes, Total: total}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resp}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/generated-code/{id}
func (h *GeneratedCodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	codeID, ok := ParseCodeID(w, r, h.logger)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	code, err := h.codeService.Get(r.Context(), codeID, actor)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to get generated code",
			zap.String("id", codeID.String()))
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: code}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// requireActor reads the authenticated actor placed in context by auth middleware.
func requireActor(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (models.Actor, bool) {
	actor, err := auth.RequireActorFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return models.Actor{}, false
	}
	return actor, true
}
