package models

import (
	"context"

	"github.com/google/uuid"
)

// Role constants.
const (
	RoleSuperAdmin = "super_admin"
	RoleBrandAdmin = "brand_admin"
	RoleBrandUser  = "brand_user"
	RoleDeployer   = "deployer"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleSuperAdmin, RoleBrandAdmin, RoleBrandUser, RoleDeployer}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID       uuid.UUID
	Role     string
	BrandIDs []uuid.UUID
}

// HasBrandAccess returns true if the actor may see records of brandID.
// Super admins and deployers are not brand-scoped for reads.
func (a Actor) HasBrandAccess(brandID uuid.UUID) bool {
	if a.Role == RoleSuperAdmin || a.Role == RoleDeployer {
		return true
	}
	for _, id := range a.BrandIDs {
		if id == brandID {
			return true
		}
	}
	return false
}

// CanAuthor returns true if the actor may submit or score code for brandID.
// Deployers only read and deploy, so they never author.
func (a Actor) CanAuthor(brandID uuid.UUID) bool {
	if a.Role == RoleDeployer {
		return false
	}
	return a.HasBrandAccess(brandID)
}

// CanTransitionTo reports whether the actor's role permits moving a record of
// brandID into target. Edge legality is checked separately.
func (a Actor) CanTransitionTo(brandID uuid.UUID, target CodeStatus) bool {
	switch target {
	case StatusReviewed, StatusApproved, StatusRejected:
		if a.Role == RoleSuperAdmin {
			return true
		}
		return a.Role == RoleBrandAdmin && a.HasBrandAccess(brandID)
	case StatusDeployed:
		return a.Role == RoleDeployer || a.Role == RoleSuperAdmin
	default:
		return false
	}
}

type actorKey struct{}

// WithActor returns a new context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// GetActor retrieves the actor from the context.
func GetActor(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
