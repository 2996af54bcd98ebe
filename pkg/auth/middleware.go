package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates authentication logic to AuthService.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth validates the JWT and places claims, token, and actor in context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(ctx))
	}
}

// RequireBrandAccess validates the JWT and checks that the actor may act on
// the brand named by the pathParamName path value (e.g. "bid").
func (m *Middleware) RequireBrandAccess(pathParamName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := m.authenticate(w, r)
			if !ok {
				return
			}

			actor, _ := models.GetActor(ctx)
			if _, err := m.authService.ValidateBrandAccess(actor, r.PathValue(pathParamName)); err != nil {
				if errors.Is(err, ErrInvalidBrandID) {
					writeAuthError(w, http.StatusBadRequest, "bad_request", "Invalid brand ID")
					return
				}
				writeAuthError(w, http.StatusForbidden, "forbidden", "No access to this brand")
				return
			}

			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole validates the JWT and requires one of roles.
func (m *Middleware) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := m.authenticate(w, r)
			if !ok {
				return
			}

			actor, _ := models.GetActor(ctx)
			for _, role := range roles {
				if actor.Role == role {
					next(w, r.WithContext(ctx))
					return
				}
			}

			m.logger.Warn("Role not permitted for endpoint",
				zap.String("role", actor.Role),
				zap.String("path", r.URL.Path))
			writeAuthError(w, http.StatusForbidden, "forbidden", "Insufficient role for this endpoint")
		}
	}
}

func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) (context.Context, bool) {
	claims, actor, token, err := m.authService.ValidateRequest(r)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return nil, false
	}

	ctx := context.WithValue(r.Context(), ClaimsKey, claims)
	ctx = context.WithValue(ctx, TokenKey, token)
	ctx = models.WithActor(ctx, actor)
	return ctx, true
}

// writeAuthError writes a JSON error body.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
