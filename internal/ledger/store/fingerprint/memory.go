// Package fingerprint provides the consumed-fingerprint set backing the
// anti-replay layer. The set is append-only and never pruned; permanent
// replay protection is worth the unbounded growth.
package fingerprint

import (
	"context"
	"sync"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	"github.com/ssmadhavan006/zkredit/pkg/platform/sentinel"
)

// InMemory keeps consumed fingerprints in a process-local set.
type InMemory struct {
	mu       sync.RWMutex
	consumed map[id.Digest]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{consumed: make(map[id.Digest]struct{})}
}

func (s *InMemory) Contains(ctx context.Context, fp id.Digest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.consumed[fp]
	return ok, nil
}

// Add marks a fingerprint consumed. Returns sentinel.ErrAlreadyUsed if the
// fingerprint was consumed before, so callers get check-and-set atomicity.
func (s *InMemory) Add(ctx context.Context, fp id.Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.consumed[fp]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.consumed[fp] = struct{}{}
	return nil
}
