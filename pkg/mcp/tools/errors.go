// Package tools provides the MCP tools of safecode-engine.
package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

// ErrorResponse is the JSON body of a tool error result.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result carrying an actionable error the
// client can fix (bad arguments, unknown record, no access).
// System failures are returned as Go errors instead.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// asErrorResult converts an actionable service error into a tool result.
// It returns nil for errors that should surface as JSON-RPC errors.
func asErrorResult(err error) *mcp.CallToolResult {
	var inputErr *validation.ValidationInputError
	switch {
	case errors.As(err, &inputErr):
		return NewErrorResultWithDetails("validation_error", inputErr.Error(), map[string]string{"field": inputErr.Field})
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", "no generated code with that id")
	case errors.Is(err, apperrors.ErrForbidden):
		return NewErrorResult("forbidden", "no access to this brand")
	default:
		return nil
	}
}
