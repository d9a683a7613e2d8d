package policy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
)

// AuditPublisher emits audit events for policy changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event pa.Event) error
}

// Registry holds the active lending policy behind an explicit handle rather
// than a hidden global, so tests can run isolated instances and the engine
// observes replacements immediately under one lock.
type Registry struct {
	mu      sync.RWMutex
	active  PolicySet
	changes []Change
	admin   id.ActorID

	logger         *slog.Logger
	auditPublisher AuditPublisher
	nowFn          func() time.Time
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(r *Registry) {
		r.auditPublisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.nowFn = now
	}
}

// New constructs a Registry with the given administrator and initial policy.
// The initial policy must already satisfy every bound.
func New(admin id.ActorID, initial PolicySet, opts ...Option) (*Registry, error) {
	if admin.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "policy registry administrator is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		active: initial.clone(),
		admin:  admin,
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Get returns a copy of the active policy. It never fails.
func (r *Registry) Get() PolicySet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active.clone()
}

// CollateralRatioFor reflects the active policy immediately after a Replace.
func (r *Registry) CollateralRatioFor(score uint32) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active.CollateralRatioFor(score)
}

// Replace swaps the active policy atomically. An invalid candidate leaves the
// active policy untouched.
func (r *Registry) Replace(ctx context.Context, caller id.ActorID, next PolicySet) error {
	if err := next.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if caller != r.admin {
		r.mu.Unlock()
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the policy administrator")
	}
	old := r.active
	r.active = next.clone()
	change := Change{Admin: caller, At: r.nowFn(), Old: old, New: r.active.clone()}
	r.changes = append(r.changes, change)
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.InfoContext(ctx, "lending policy replaced",
			"admin", caller,
			"max_dti_bp", next.MaxDTI,
			"min_credit_score", next.MinCreditScore)
	}
	r.emitAudit(ctx, caller, pa.EventPolicyReplaced)
	return nil
}

// RotateAdmin hands the registry to a new administrator.
func (r *Registry) RotateAdmin(ctx context.Context, caller, next id.ActorID) error {
	if next.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "next administrator is required")
	}

	r.mu.Lock()
	if caller != r.admin {
		r.mu.Unlock()
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the policy administrator")
	}
	r.admin = next
	r.mu.Unlock()

	r.emitAudit(ctx, caller, pa.EventAdminRotated)
	return nil
}

// Admin returns the current administrator.
func (r *Registry) Admin() id.ActorID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin
}

// Changes returns the replacement audit trail in order.
func (r *Registry) Changes() []Change {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Change, len(r.changes))
	copy(out, r.changes)
	return out
}

func (r *Registry) emitAudit(ctx context.Context, actor id.ActorID, action pa.AuditEvent) {
	if r.auditPublisher == nil {
		return
	}
	_ = r.auditPublisher.Emit(ctx, pa.Event{
		Actor:  actor,
		Action: string(action),
	})
}
