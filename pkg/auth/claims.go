// Package auth provides JWT-based authentication for safecode-engine.
// Tokens are validated against whitelisted issuers' JWKS endpoints and mapped
// onto a models.Actor.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims represents the JWT claims structure.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.)
// and adds the caller's role and brand scope.
type Claims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email,omitempty"`
	Role     string   `json:"role,omitempty"` // One of models.ValidRoles
	BrandIDs []string `json:"bids,omitempty"` // Brands a brand_admin or brand_user may act on
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// ActorFromClaims maps validated claims onto an Actor.
// The subject must be a UUID and the role must be known.
func ActorFromClaims(claims *Claims) (models.Actor, error) {
	if claims == nil {
		return models.Actor{}, fmt.Errorf("authentication required: no claims")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid subject %q: %w", claims.Subject, err)
	}

	if !models.IsValidRole(claims.Role) {
		return models.Actor{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, claims.Role)
	}

	brandIDs := make([]uuid.UUID, 0, len(claims.BrandIDs))
	for _, raw := range claims.BrandIDs {
		bid, err := uuid.Parse(raw)
		if err != nil {
			return models.Actor{}, fmt.Errorf("invalid brand ID %q in token: %w", raw, err)
		}
		brandIDs = append(brandIDs, bid)
	}

	return models.Actor{ID: id, Role: claims.Role, BrandIDs: brandIDs}, nil
}
