package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/auth"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
)

// AuditListResponse is one page of the audit trail.
type AuditListResponse struct {
	Items []*models.AuditLogEntry `json:"items"`
	Total int                     `json:"total"`
}

// AuditHandler serves the read-only audit trail.
type AuditHandler struct {
	auditService services.AuditService
	logger       *zap.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger.Named("audit-handler"),
	}
}

// RegisterRoutes registers the audit routes. The cross-brand query is limited to super admins.
func (h *AuditHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/generated-code/{id}/audit",
		authMiddleware.RequireAuth(scope(h.ListForCode)))
	mux.HandleFunc("GET /api/audit",
		authMiddleware.RequireRole(models.RoleSuperAdmin)(scope(h.List)))
}

// ListForCode handles GET /api/generated-code/{id}/audit
func (h *AuditHandler) ListForCode(w http.ResponseWriter, r *http.Request) {
	codeID, ok := ParseCodeID(w, r, h.logger)
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

	entries, total, err := h.auditService.ListForCode(r.Context(), codeID, actor, page.Limit, page.Offset)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list audit trail",
			zap.String("id", codeID.String()))
		return
	}
	h.writeList(w, entries, total)
}

// List handles GET /api/audit
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := ParsePage(w, r, h.logger)
	if !ok {
		return
	}
	filters := models.AuditFilters{
		Action: r.URL.Query().Get("action"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}

	if filters.GeneratedCodeID, ok = queryUUID(w, r, "code_id", h.logger); !ok {
		return
	}
	if filters.BrandID, ok = queryUUID(w, r, "brand_id", h.logger); !ok {
		return
	}
	if filters.ActorID, ok = queryUUID(w, r, "actor_id", h.logger); !ok {
		return
	}
	if filters.Since, ok = queryTime(w, r, "since", h.logger); !ok {
		return
	}
	if filters.Until, ok = queryTime(w, r, "until", h.logger); !ok {
		return
	}

	entries, total, err := h.auditService.List(r.Context(), filters)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to query audit trail")
		return
	}
	h.writeList(w, entries, total)
}

func (h *AuditHandler) writeList(w http.ResponseWriter, entries []*models.AuditLogEntry, total int) {
	if entries == nil {
		entries = []*models.AuditLogEntry{}
	}
	resp := AuditListResponse{Items: entries, Total: total}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resp}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
