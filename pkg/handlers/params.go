package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseBrandID extracts and validates the brand ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: bid
func ParseBrandID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "bid", "invalid_brand_id", "Invalid brand ID format", logger)
}

// ParseCodeID extracts and validates the generated code ID from the request path.
// Expects path parameter: id
func ParseCodeID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_code_id", "Invalid generated code ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		badRequest(w, errorCode, errorMessage, logger)
		return uuid.Nil, false
	}
	return id, true
}

// Page is the limit/offset pair read from a query string.
// Zero values leave the repository defaults in place.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit and offset query parameters.
func ParsePage(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (Page, bool) {
	var p Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "invalid_"+name, name+" must be a non-negative integer", logger)
			return Page{}, false
		}
		*dst = n
	}
	return p, true
}

// queryUUID reads an optional UUID query parameter.
func queryUUID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid_"+name, "Invalid "+name+" format", logger)
		return nil, false
	}
	return &id, true
}

// queryTime reads an optional RFC 3339 timestamp query parameter.
func queryTime(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(w, "invalid_"+name, name+" must be an RFC 3339 timestamp", logger)
		return nil, false
	}
	return &ts, true
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid_request", "Invalid request body", logger)
		return false
	}
	return true
}

func badRequest(w http.ResponseWriter, code, message string, logger *zap.Logger) {
	if err := ErrorResponse(w, http.StatusBadRequest, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
