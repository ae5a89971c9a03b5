package ledger

import (
	"context"
	"fmt"
	"sync"

	"idregistry/internal/identity/models"
	"idregistry/pkg/platform/sentinel"
)

// InMemory implements Ledger with mutex-guarded maps. Ids start at 1 and the
// counter never rewinds, so a burned id is never handed out again.
type InMemory struct {
	mu      sync.RWMutex
	nextID  uint64
	owners  map[uint64]models.Address
	byOwner map[models.Address][]uint64
}

// NewInMemory creates an empty in-memory ownership ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		nextID:  1,
		owners:  make(map[uint64]models.Address),
		byOwner: make(map[models.Address][]uint64),
	}
}

func (l *InMemory) MintTo(_ context.Context, owner models.Address) (uint64, error) {
	owner = owner.Normalize()
	if owner.IsZero() {
		return 0, fmt.Errorf("mint to zero address: %w", sentinel.ErrUnauthorized)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.owners[id] = owner
	l.byOwner[owner] = append(l.byOwner[owner], id)
	return id, nil
}

func (l *InMemory) Transfer(_ context.Context, id uint64, from, to models.Address) error {
	from = from.Normalize()
	to = to.Normalize()
	if to.IsZero() {
		return fmt.Errorf("transfer to zero address: %w", sentinel.ErrUnauthorized)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner != from {
		return fmt.Errorf("transfer of %d by non-owner: %w", id, sentinel.ErrUnauthorized)
	}

	l.removeFromOwner(owner, id)
	l.owners[id] = to
	l.byOwner[to] = append(l.byOwner[to], id)
	return nil
}

func (l *InMemory) Burn(_ context.Context, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	l.removeFromOwner(owner, id)
	delete(l.owners, id)
	return nil
}

func (l *InMemory) OwnerOf(_ context.Context, id uint64) (models.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	owner, ok := l.owners[id]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return owner, nil
}

func (l *InMemory) BalanceOf(_ context.Context, owner models.Address) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byOwner[owner.Normalize()]), nil
}

func (l *InMemory) TokenOfOwnerByIndex(_ context.Context, owner models.Address, index int) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	held := l.byOwner[owner.Normalize()]
	if index < 0 || index >= len(held) {
		return 0, sentinel.ErrNotFound
	}
	return held[index], nil
}

// removeFromOwner drops id from an owner's enumeration slice. Callers hold
// the write lock.
func (l *InMemory) removeFromOwner(owner models.Address, id uint64) {
	held := l.byOwner[owner]
	for i, existing := range held {
		if existing == id {
			l.byOwner[owner] = append(held[:i], held[i+1:]...)
			break
		}
	}
	if len(l.byOwner[owner]) == 0 {
		delete(l.byOwner, owner)
	}
}
