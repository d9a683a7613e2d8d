// Package modelregistry tracks the approved scoring-model commitment. Only
// the latest commitment verifies; committing a new model implicitly revokes
// every earlier one, so stale proofs are rejected without an explicit
// revocation step.
package modelregistry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
)

// Commitment binds a model export to a 256-bit digest.
//
// Invariants:
//   - Hash is never the zero digest
//   - Version starts at 1 and increases by exactly 1 per commit
type Commitment struct {
	Hash    id.Digest `json:"hash"`
	Version uint64    `json:"version"`
}

// AuditPublisher emits audit events for model commitments.
type AuditPublisher interface {
	Emit(ctx context.Context, event pa.Event) error
}

// Registry holds the current commitment and its append-only history.
type Registry struct {
	mu      sync.RWMutex
	current Commitment
	history map[uint64]id.Digest
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

// New constructs a Registry seeded with the first model commitment.
func New(admin id.ActorID, first id.Digest, opts ...Option) (*Registry, error) {
	if admin.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "model registry administrator is required")
	}
	if first.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid model hash: zero digest")
	}
	r := &Registry{
		current: Commitment{Hash: first, Version: 1},
		history: map[uint64]id.Digest{1: first},
		admin:   admin,
		nowFn:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Current returns the active commitment.
func (r *Registry) Current() Commitment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Commit stores a new model hash as current, bumping the version by one and
// appending to the history.
func (r *Registry) Commit(ctx context.Context, caller id.ActorID, hash id.Digest) (Commitment, error) {
	if hash.IsZero() {
		return Commitment{}, dErrors.New(dErrors.CodeValidation, "invalid model hash: zero digest")
	}

	r.mu.Lock()
	if caller != r.admin {
		r.mu.Unlock()
		return Commitment{}, dErrors.New(dErrors.CodeUnauthorized, "caller is not the model administrator")
	}
	r.current = Commitment{Hash: hash, Version: r.current.Version + 1}
	r.history[r.current.Version] = hash
	committed := r.current
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.InfoContext(ctx, "model commitment updated",
			"version", committed.Version, "hash", committed.Hash)
	}
	if r.auditPublisher != nil {
		_ = r.auditPublisher.Emit(ctx, pa.Event{
			Actor:  caller,
			Action: string(pa.EventModelCommitted),
			Reason: committed.Hash.Hex(),
		})
	}
	return committed, nil
}

// Verify reports whether the hash equals the current commitment. History
// entries never verify; a proof built against a superseded model fails here.
func (r *Registry) Verify(hash id.Digest) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !hash.IsZero() && hash == r.current.Hash
}

// HistoryAt returns the hash committed at a given version.
func (r *Registry) HistoryAt(version uint64) (id.Digest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if version == 0 || version > r.current.Version {
		return id.Digest{}, dErrors.Newf(dErrors.CodeNotFound, "model version %d out of range", version)
	}
	return r.history[version], nil
}

// RotateAdmin hands the registry to a new administrator.
func (r *Registry) RotateAdmin(ctx context.Context, caller, next id.ActorID) error {
	if next.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "next administrator is required")
	}

	r.mu.Lock()
	if caller != r.admin {
		r.mu.Unlock()
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the model administrator")
	}
	r.admin = next
	r.mu.Unlock()

	if r.auditPublisher != nil {
		_ = r.auditPublisher.Emit(ctx, pa.Event{
			Actor:  caller,
			Action: string(pa.EventAdminRotated),
		})
	}
	return nil
}

// Admin returns the current administrator.
func (r *Registry) Admin() id.ActorID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin
}
