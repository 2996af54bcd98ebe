package models

// CodeStatus is the review lifecycle state of a GeneratedCode record.
type CodeStatus string

const (
	StatusGenerated CodeStatus = "generated"
	StatusReviewed  CodeStatus = "reviewed"
	StatusApproved  CodeStatus = "approved"
	StatusRejected  CodeStatus = "rejected"
	StatusDeployed  CodeStatus = "deployed"
)

// legalEdges lists every allowed (from, to) pair. Anything absent is illegal.
var legalEdges = map[CodeStatus][]CodeStatus{
	StatusGenerated: {StatusReviewed, StatusApproved, StatusRejected},
	StatusReviewed:  {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDeployed},
	StatusRejected:  {},
	StatusDeployed:  {},
}

// IsValid returns true if s is a known status.
func (s CodeStatus) IsValid() bool {
	_, ok := legalEdges[s]
	return ok
}

// IsTerminal returns true for statuses that never return to generated or reviewed.
func (s CodeStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusDeployed
}

// String returns the string representation of a CodeStatus.
func (s CodeStatus) String() string {
	return string(s)
}

// LegalTargets returns the statuses reachable from s in one transition.
// The returned slice is a copy.
func LegalTargets(from CodeStatus) []CodeStatus {
	targets := legalEdges[from]
	out := make([]CodeStatus, len(targets))
	copy(out, targets)
	return out
}

// IsLegalTransition reports whether from -> to is a legal edge.
func IsLegalTransition(from, to CodeStatus) bool {
	for _, t := range legalEdges[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Audit action constants, one per transition target.
const (
	AuditActionMarkReviewed     = "mark_reviewed"
	AuditActionApprove          = "approve"
	AuditActionReject           = "reject"
	AuditActionRecordDeployment = "record_deployment"
)

// ActionForTarget returns the audit action recorded for a transition to target.
func ActionForTarget(target CodeStatus) string {
	switch target {
	case StatusReviewed:
		return AuditActionMarkReviewed
	case StatusApproved:
		return AuditActionApprove
	case StatusRejected:
		return AuditActionReject
	case StatusDeployed:
		return AuditActionRecordDeployment
	default:
		return ""
	}
}

// IsValidAuditAction checks if the given action is a known audit action.
func IsValidAuditAction(action string) bool {
	switch action {
	case AuditActionMarkReviewed, AuditActionApprove, AuditActionReject, AuditActionRecordDeployment:
		return true
	default:
		return false
	}
}
