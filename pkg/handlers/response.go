package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/llm"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

// ApiResponse is the envelope for successful responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorBody is the JSON body of an error response. Field is set for input
// errors. Allowed lists the legal targets of an illegal transition and is
// omitted when the current status is terminal.
type ErrorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Field   string              `json:"field,omitempty"`
	Allowed []models.CodeStatus `json:"allowed,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return writeErrorBody(w, statusCode, ErrorBody{Error: errorCode, Message: message})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body ErrorBody) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}

// errorStatus maps a service error onto an HTTP status and error body.
func errorStatus(err error) (int, ErrorBody) {
	var (
		inputErr     *validation.ValidationInputError
		stateErr     *services.StateTransitionError
		forbiddenErr *services.TransitionForbiddenError
		auditErr     *services.AuditWriteFailure
		llmErr       *llm.Error
	)

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, ErrorBody{Error: "validation_error", Message: inputErr.Error(), Field: inputErr.Field}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: "not_found", Message: "Generated code not found"}
	case errors.As(err, &stateErr):
		return http.StatusConflict, ErrorBody{Error: "illegal_transition", Message: stateErr.Error(), Allowed: stateErr.Allowed}
	case errors.Is(err, apperrors.ErrStaleStatus):
		return http.StatusConflict, ErrorBody{Error: "stale_status", Message: "Status changed since it was read; reload and retry"}
	case errors.As(err, &forbiddenErr):
		return http.StatusForbidden, ErrorBody{Error: "forbidden", Message: forbiddenErr.Error()}
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Error: "forbidden", Message: "No access to this brand"}
	case errors.As(err, &auditErr):
		return http.StatusInternalServerError, ErrorBody{Error: "audit_write_failed", Message: "Transition was not applied because the audit entry could not be written"}
	case errors.Is(err, services.ErrGenerationDisabled):
		return http.StatusServiceUnavailable, ErrorBody{Error: "generation_unavailable", Message: err.Error()}
	case errors.Is(err, services.ErrEmptyGeneration):
		return http.StatusBadGateway, ErrorBody{Error: "generation_failed", Message: err.Error()}
	case errors.As(err, &llmErr):
		if llmErr.Type == llm.ErrorTypeTimeout {
			return http.StatusGatewayTimeout, ErrorBody{Error: "generation_timeout", Message: "Code generation timed out"}
		}
		return http.StatusBadGateway, ErrorBody{Error: "generation_failed", Message: llmErr.Message}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "internal_error", Message: "Internal server error"}
	}
}

// writeServiceError writes the response for err. Server-side failures are logged.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger, msg string, fields ...zap.Field) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, append(fields, zap.Error(err))...)
	} else {
		logger.Debug(msg, append(fields, zap.Int("status", status), zap.Error(err))...)
	}
	if err := writeErrorBody(w, status, body); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
