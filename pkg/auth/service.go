package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrInvalidBrandID       = errors.New("invalid brand ID")
	ErrBrandAccessDenied    = errors.New("no access to brand")
)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	// ValidateRequest extracts the Bearer token from the Authorization header,
	// validates it, and maps it onto an Actor.
	ValidateRequest(r *http.Request) (*Claims, models.Actor, string, error)

	// ValidateBrandAccess checks that the actor may act on the brand in the URL.
	ValidateBrandAccess(actor models.Actor, urlBrandID string) (uuid.UUID, error)
}

type authService struct {
	jwksClient JWKSClientInterface
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client and logger.
func NewAuthService(jwksClient JWKSClientInterface, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger.Named("auth"),
	}
}

var _ AuthService = (*authService)(nil)

func (s *authService) ValidateRequest(r *http.Request) (*Claims, models.Actor, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, models.Actor{}, "", ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		s.logger.Debug("Invalid Authorization header format", zap.String("path", r.URL.Path))
		return nil, models.Actor{}, "", ErrInvalidAuthFormat
	}
	tokenString := parts[1]

	claims, err := s.jwksClient.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return nil, models.Actor{}, "", err
	}

	actor, err := ActorFromClaims(claims)
	if err != nil {
		s.logger.Debug("JWT claims do not describe an actor",
			zap.Error(err),
			zap.String("subject", claims.Subject))
		return nil, models.Actor{}, "", err
	}

	return claims, actor, tokenString, nil
}

func (s *authService) ValidateBrandAccess(actor models.Actor, urlBrandID string) (uuid.UUID, error) {
	brandID, err := uuid.Parse(urlBrandID)
	if err != nil {
		return uuid.Nil, ErrInvalidBrandID
	}
	if !actor.HasBrandAccess(brandID) {
		s.logger.Warn("Brand access denied",
			zap.String("actor_id", actor.ID.String()),
			zap.String("role", actor.Role),
			zap.String("brand_id", brandID.String()))
		return uuid.Nil, ErrBrandAccessDenied
	}
	return brandID, nil
}
