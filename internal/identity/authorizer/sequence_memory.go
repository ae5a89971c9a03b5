package authorizer

import (
	"context"
	"fmt"
	"sync"

	"idregistry/pkg/platform/sentinel"
)

// InMemorySequence is the process-local replay ledger. Suitable for a
// single-instance deployment; use the Redis store when the registry runs
// behind more than one process.
type InMemorySequence struct {
	mu   sync.Mutex
	next uint64
}

// NewInMemorySequence creates a ledger expecting sequence 1 first.
func NewInMemorySequence() *InMemorySequence {
	return &InMemorySequence{next: 1}
}

func (s *InMemorySequence) Next(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next, nil
}

func (s *InMemorySequence) Advance(_ context.Context, current uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next != current {
		return fmt.Errorf("sequence moved from %d to %d: %w", current, s.next, sentinel.ErrInvalidSignature)
	}
	s.next++
	return nil
}
