package audit

import (
	"context"
	"sync"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
)

// InMemoryStore keeps audit events in an append-only slice with a per-actor
// index. Suitable for tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  []pa.Event
	byActor map[id.ActorID][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byActor: make(map[id.ActorID][]int)}
}

func (s *InMemoryStore) Append(ctx context.Context, event pa.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if !event.Actor.IsZero() {
		s.byActor[event.Actor] = append(s.byActor[event.Actor], len(s.events)-1)
	}
	return nil
}

func (s *InMemoryStore) ListByActor(ctx context.Context, actor id.ActorID) ([]pa.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs := s.byActor[actor]
	out := make([]pa.Event, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.events[i])
	}
	return out, nil
}

// All returns every recorded event in append order.
func (s *InMemoryStore) All() []pa.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pa.Event, len(s.events))
	copy(out, s.events)
	return out
}
