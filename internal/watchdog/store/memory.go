package store

import (
	"context"
	"sync"

	"github.com/ssmadhavan006/zkredit/internal/watchdog"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// InMemory keeps watchdog state in process-local maps. Records are
// append-only; the attack counter is derived from record count and survives
// rehabilitation.
type InMemory struct {
	mu        sync.RWMutex
	attacks   map[id.ActorID][]watchdog.AttackRecord
	flagged   map[id.ActorID]bool
	slashings []watchdog.SlashingEvent
	total     uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		attacks: make(map[id.ActorID][]watchdog.AttackRecord),
		flagged: make(map[id.ActorID]bool),
	}
}

func (s *InMemory) AppendAttack(ctx context.Context, record watchdog.AttackRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attacks[record.Actor] = append(s.attacks[record.Actor], record)
	s.total++
	return len(s.attacks[record.Actor]), nil
}

func (s *InMemory) AttackCount(ctx context.Context, actor id.ActorID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attacks[actor]), nil
}

func (s *InMemory) ListByActor(ctx context.Context, actor id.ActorID) ([]watchdog.AttackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.attacks[actor]
	out := make([]watchdog.AttackRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *InMemory) SetBlacklisted(ctx context.Context, actor id.ActorID, flagged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flagged {
		s.flagged[actor] = true
	} else {
		delete(s.flagged, actor)
	}
	return nil
}

func (s *InMemory) IsBlacklisted(ctx context.Context, actor id.ActorID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flagged[actor], nil
}

func (s *InMemory) AppendSlashing(ctx context.Context, event watchdog.SlashingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slashings = append(s.slashings, event)
	return nil
}

func (s *InMemory) Totals(ctx context.Context) (watchdog.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return watchdog.Stats{
		TotalAttacksBlocked: s.total,
		TotalSlashingEvents: uint64(len(s.slashings)),
	}, nil
}
