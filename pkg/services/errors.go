package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// StateTransitionError is returned for an edge not in the lifecycle table.
// Allowed lists the targets that are legal from From.
type StateTransitionError struct {
	From    models.CodeStatus
	To      models.CodeStatus
	Allowed []models.CodeStatus
}

func (e *StateTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("illegal transition %s -> %s: %s is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("illegal transition %s -> %s (allowed: %s)", e.From, e.To, strings.Join(allowed, ", "))
}

// TransitionForbiddenError is returned when the actor's role may not move a
// record into the target status.
type TransitionForbiddenError struct {
	ActorID uuid.UUID
	Role    string
	To      models.CodeStatus
}

func (e *TransitionForbiddenError) Error() string {
	return fmt.Sprintf("role %q may not transition code to %s", e.Role, e.To)
}

// AuditWriteFailure is returned when the audit entry could not be written.
// The status change it accompanied was rolled back.
type AuditWriteFailure struct {
	Cause error
}

func (e *AuditWriteFailure) Error() string {
	return fmt.Sprintf("failed to write audit entry: %v", e.Cause)
}

func (e *AuditWriteFailure) Unwrap() error {
	return e.Cause
}

var (
	// ErrGenerationDisabled is returned by GenerationService when no provider is configured.
	ErrGenerationDisabled = errors.New("code generation is not configured")

	// ErrEmptyGeneration is returned when the provider answered without any code.
	ErrEmptyGeneration = errors.New("generator returned no code")
)
