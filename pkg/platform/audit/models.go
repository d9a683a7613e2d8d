package audit

import (
	"time"

	"github.com/google/uuid"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: policy replacement, model commitments, settlements.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics. These feed SIEM pipelines and alerting.
	// Examples: detected attacks, blacklisting, slashing.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	// Examples: deposits, repayments, liquidations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	Actor     id.ActorID
	Action    string
	Decision  string
	Reason    string
	// Fingerprint carries the proof fingerprint for verification events so
	// a settlement can be traced back to the exact proof that backed it.
	Fingerprint string
	// Amount is the decimal amount involved, when the action moves funds.
	Amount string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	// Registry events
	EventPolicyReplaced AuditEvent = "policy_replaced"
	EventModelCommitted AuditEvent = "model_committed"
	EventAdminRotated   AuditEvent = "admin_rotated"

	// Settlement events
	EventLoanSettled    AuditEvent = "loan_settled"
	EventLoanRepaid     AuditEvent = "loan_repaid"
	EventLoanLiquidated AuditEvent = "loan_liquidated"
	EventDepositPlaced  AuditEvent = "deposit_placed"

	// Watchdog events
	EventAttackDetected     AuditEvent = "attack_detected"
	EventActorBlacklisted   AuditEvent = "actor_blacklisted"
	EventActorRehabilitated AuditEvent = "actor_rehabilitated"
	EventSlashingExecuted   AuditEvent = "slashing_executed"
)

// eventCategories maps each audit event to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: debugging, operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	EventPolicyReplaced: CategoryCompliance,
	EventModelCommitted: CategoryCompliance,
	EventAdminRotated:   CategoryCompliance,
	EventLoanSettled:    CategoryCompliance,

	EventAttackDetected:     CategorySecurity,
	EventActorBlacklisted:   CategorySecurity,
	EventActorRehabilitated: CategorySecurity,
	EventSlashingExecuted:   CategorySecurity,

	EventLoanRepaid:     CategoryOperations,
	EventLoanLiquidated: CategoryOperations,
	EventDepositPlaced:  CategoryOperations,
}

// CategoryFor returns the category for an event name; unknown events fall
// back to operations so new call sites degrade gracefully.
func CategoryFor(event AuditEvent) EventCategory {
	if c, ok := eventCategories[event]; ok {
		return c
	}
	return CategoryOperations
}
