package auth

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// RequireActorFromContext returns the actor placed in context by the auth
// middleware, or an error when the request is unauthenticated.
func RequireActorFromContext(ctx context.Context) (models.Actor, error) {
	actor, ok := models.GetActor(ctx)
	if !ok {
		return models.Actor{}, fmt.Errorf("authentication required: no actor in context")
	}
	return actor, nil
}
