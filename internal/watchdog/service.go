// Package watchdog records attack attempts, maintains per-actor counters and
// the blacklist, and logs slashing intents. Separating attack bookkeeping
// from fund custody lets the watchdog be swapped without touching settled
// balances.
package watchdog

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ssmadhavan006/zkredit/internal/watchdog/metrics"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
)

// Store persists attack records, the blacklist, and slashing events.
// AppendAttack returns the actor's new attack count so the service can apply
// the threshold without a second round trip.
type Store interface {
	AppendAttack(ctx context.Context, record AttackRecord) (int, error)
	AttackCount(ctx context.Context, actor id.ActorID) (int, error)
	ListByActor(ctx context.Context, actor id.ActorID) ([]AttackRecord, error)
	SetBlacklisted(ctx context.Context, actor id.ActorID, flagged bool) error
	IsBlacklisted(ctx context.Context, actor id.ActorID) (bool, error)
	AppendSlashing(ctx context.Context, event SlashingEvent) error
	Totals(ctx context.Context) (Stats, error)
}

// AuditPublisher emits audit events for watchdog activity.
type AuditPublisher interface {
	Emit(ctx context.Context, event pa.Event) error
}

type Service struct {
	store   Store
	adminMu sync.RWMutex
	admin   id.ActorID

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	nowFn          func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.nowFn = now
	}
}

func New(store Store, admin id.ActorID, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("watchdog store is required")
	}
	if admin.IsZero() {
		return nil, errors.New("watchdog administrator is required")
	}
	s := &Service{store: store, admin: admin, nowFn: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RecordAttack appends an attack record and increments the actor's counter.
// Crossing BlacklistThreshold while the actor is not currently blacklisted
// flips the flag exactly once and emits a distinct event; after an
// administrator rehabilitates, the next attack re-triggers blacklisting.
func (s *Service) RecordAttack(ctx context.Context, actor id.ActorID, kind AttackKind, fingerprint id.Digest, detail string) error {
	if !kind.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown attack kind: %s", kind)
	}

	record := AttackRecord{
		Actor:       actor,
		Kind:        kind,
		Fingerprint: fingerprint,
		Detail:      detail,
		At:          s.nowFn(),
	}
	count, err := s.store.AppendAttack(ctx, record)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append attack record")
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "attack recorded",
			"actor", actor, "kind", kind, "count", count, "detail", detail)
	}
	if s.metrics != nil {
		s.metrics.IncrementAttacks(kind.String())
	}
	s.emitAudit(ctx, actor, pa.EventAttackDetected, string(kind), fingerprint.Hex())

	if count < BlacklistThreshold {
		return nil
	}
	flagged, err := s.store.IsBlacklisted(ctx, actor)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read blacklist flag")
	}
	if flagged {
		return nil
	}
	if err := s.store.SetBlacklisted(ctx, actor, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to blacklist actor")
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "actor blacklisted after repeated attacks",
			"actor", actor, "count", count)
	}
	if s.metrics != nil {
		s.metrics.IncrementBlacklisted()
	}
	s.emitAudit(ctx, actor, pa.EventActorBlacklisted, "", "")
	return nil
}

// ExecuteSlashing records the intent to forfeit an actor's deposit and
// returns the amount for the caller to route into the pool. The watchdog
// never holds funds.
func (s *Service) ExecuteSlashing(ctx context.Context, caller, actor id.ActorID, amount *big.Int, reason string) (*big.Int, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "slashing amount must be non-negative")
	}

	event := SlashingEvent{
		Actor:  actor,
		By:     caller,
		Amount: new(big.Int).Set(amount),
		Reason: reason,
		At:     s.nowFn(),
	}
	if err := s.store.AppendSlashing(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append slashing event")
	}

	if s.metrics != nil {
		s.metrics.IncrementSlashing()
	}
	if s.auditPublisher != nil {
		_ = s.auditPublisher.Emit(ctx, pa.Event{
			Actor:  actor,
			Action: string(pa.EventSlashingExecuted),
			Reason: reason,
			Amount: event.Amount.String(),
		})
	}
	return event.Amount, nil
}

// Blacklist is the administrator's manual override.
func (s *Service) Blacklist(ctx context.Context, caller, actor id.ActorID) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.store.SetBlacklisted(ctx, actor, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to blacklist actor")
	}
	if s.metrics != nil {
		s.metrics.IncrementBlacklisted()
	}
	s.emitAudit(ctx, actor, pa.EventActorBlacklisted, "", "")
	return nil
}

// Rehabilitate clears the blacklist flag. The attack counter is preserved,
// so one further attack re-triggers automatic blacklisting.
func (s *Service) Rehabilitate(ctx context.Context, caller, actor id.ActorID) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if err := s.store.SetBlacklisted(ctx, actor, false); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to rehabilitate actor")
	}
	s.emitAudit(ctx, actor, pa.EventActorRehabilitated, "", "")
	return nil
}

// RotateAdmin hands the watchdog to a new administrator.
func (s *Service) RotateAdmin(ctx context.Context, caller, next id.ActorID) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	if next.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "next administrator is required")
	}
	s.adminMu.Lock()
	s.admin = next
	s.adminMu.Unlock()
	s.emitAudit(ctx, next, pa.EventAdminRotated, "", "")
	return nil
}

func (s *Service) IsBlacklisted(ctx context.Context, actor id.ActorID) (bool, error) {
	return s.store.IsBlacklisted(ctx, actor)
}

func (s *Service) AttackCount(ctx context.Context, actor id.ActorID) (int, error) {
	return s.store.AttackCount(ctx, actor)
}

func (s *Service) History(ctx context.Context, actor id.ActorID) ([]AttackRecord, error) {
	return s.store.ListByActor(ctx, actor)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Totals(ctx)
}

func (s *Service) authorize(caller id.ActorID) error {
	s.adminMu.RLock()
	defer s.adminMu.RUnlock()
	if caller != s.admin {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the watchdog administrator")
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, actor id.ActorID, action pa.AuditEvent, decision, fingerprint string) {
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, pa.Event{
		Actor:       actor,
		Action:      string(action),
		Decision:    decision,
		Fingerprint: fingerprint,
	})
}
