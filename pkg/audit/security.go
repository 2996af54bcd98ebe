// Package audit provides security audit logging for SIEM consumption.
// Events are logged as structured JSON under a dedicated logger name so they
// can be routed separately from the review audit trail stored in Postgres.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventScriptInjectionSuspected is logged when a stored snippet carries a
	// string literal that libinjection classifies as XSS.
	EventScriptInjectionSuspected SecurityEventType = "script_injection_suspected"
	// EventBrandAccessDenied is logged when an actor touches a brand outside its scope.
	EventBrandAccessDenied SecurityEventType = "brand_access_denied"
	// EventTransitionDenied is logged when an actor's role may not move a record.
	EventTransitionDenied SecurityEventType = "transition_denied"
)

// SecurityEvent is one auditable event with the context SIEM rules key on.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	BrandID   uuid.UUID         `json:"brand_id"`
	CodeID    *uuid.UUID        `json:"generated_code_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	ActorRole string            `json:"actor_role,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails describes a snippet flagged for script injection.
type InjectionDetails struct {
	TestType       string  `json:"test_type"`
	OverallScore   float64 `json:"overall_score"`
	Recommendation string  `json:"recommendation"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a security auditor under the "security_audit" logger name.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogSuspectedInjection records a stored snippet whose breakdown flags a
// possible script injection payload.
func (a *SecurityAuditor) LogSuspectedInjection(actor models.Actor, code *models.GeneratedCode) {
	if a == nil || code == nil || code.Breakdown == nil || !code.Breakdown.InjectionSuspected {
		return
	}
	codeID := code.ID
	event := newEvent(EventScriptInjectionSuspected, actor, code.BrandID, "warning")
	event.CodeID = &codeID
	event.Details = InjectionDetails{
		TestType:       code.TestType,
		OverallScore:   code.Breakdown.OverallScore,
		Recommendation: string(code.Breakdown.Recommendation),
	}

	a.logger.Warn("Script injection suspected in generated code",
		zap.String("event_json", marshalEvent(event)),
		zap.String("generated_code_id", codeID.String()),
		zap.String("brand_id", code.BrandID.String()),
		zap.String("actor_id", event.ActorID),
		zap.String("severity", event.Severity),
	)
}

// LogAccessDenied records an attempt to reach a brand outside the actor's scope.
// operation names what was attempted, e.g. "ingest" or "list".
func (a *SecurityAuditor) LogAccessDenied(actor models.Actor, brandID uuid.UUID, operation string) {
	if a == nil {
		return
	}
	event := newEvent(EventBrandAccessDenied, actor, brandID, "warning")
	event.Details = map[string]string{"operation": operation}

	a.logger.Warn("Brand access denied",
		zap.String("event_json", marshalEvent(event)),
		zap.String("brand_id", brandID.String()),
		zap.String("operation", operation),
		zap.String("actor_id", event.ActorID),
		zap.String("actor_role", event.ActorRole),
		zap.String("severity", event.Severity),
	)
}

// LogTransitionDenied records a role that may not move codeID into target.
func (a *SecurityAuditor) LogTransitionDenied(actor models.Actor, brandID, codeID uuid.UUID, target models.CodeStatus) {
	if a == nil {
		return
	}
	event := newEvent(EventTransitionDenied, actor, brandID, "info")
	event.CodeID = &codeID
	event.Details = map[string]string{"target_status": string(target)}

	a.logger.Info("Status transition denied",
		zap.String("event_json", marshalEvent(event)),
		zap.String("generated_code_id", codeID.String()),
		zap.String("target_status", string(target)),
		zap.String("actor_id", event.ActorID),
		zap.String("actor_role", event.ActorRole),
		zap.String("severity", event.Severity),
	)
}

func newEvent(eventType SecurityEventType, actor models.Actor, brandID uuid.UUID, severity string) SecurityEvent {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		BrandID:   brandID,
		ActorRole: actor.Role,
		Severity:  severity,
	}
	if actor.ID != uuid.Nil {
		event.ActorID = actor.ID.String()
	}
	return event
}

// marshalEvent ignores the error; every field is a plain value.
func marshalEvent(event SecurityEvent) string {
	b, _ := json.Marshal(event)
	return string(b)
}
