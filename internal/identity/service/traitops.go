package service

import (
	"context"
	"fmt"

	"idregistry/internal/identity/events"
	"idregistry/pkg/requestcontext"
)

// AddTrait asserts a trait on a credential. Idempotent: adding a present
// trait changes nothing and emits nothing. Restricted to the authority.
func (r *Registry) AddTrait(ctx context.Context, id uint64, name string) error {
	if err := r.requireAuthority(ctx); err != nil {
		return err
	}
	if err := validateTraitNames(name); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	credential, err := r.store.Find(ctx, id)
	if err != nil {
		return wrapNotFound(err, id)
	}
	if !credential.Traits.Add(name) {
		return nil
	}
	if err := r.store.Update(ctx, credential); err != nil {
		return fmt.Errorf("add trait to %d: %w", id, err)
	}

	r.emit(ctx, events.TraitAdded(id, name, now))
	return nil
}

// RemoveTrait drops a trait from a credential. Removing an absent trait is
// a no-op, not an error. Restricted to the authority.
func (r *Registry) RemoveTrait(ctx context.Context, id uint64, name string) error {
	if err := r.requireAuthority(ctx); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	credential, err := r.store.Find(ctx, id)
	if err != nil {
		return wrapNotFound(err, id)
	}
	if !credential.Traits.Remove(name) {
		return nil
	}
	if err := r.store.Update(ctx, credential); err != nil {
		return fmt.Errorf("remove trait from %d: %w", id, err)
	}

	r.emit(ctx, events.TraitRemoved(id, name, now))
	return nil
}

// SetTrait sets a trait to an explicit boolean, the boolean-trait-set
// variant of the admin path. Always emits TraitUpdated with the requested
// value, even when the set already held it. Restricted to the authority.
func (r *Registry) SetTrait(ctx context.Context, id uint64, name string, value bool) error {
	if err := r.requireAuthority(ctx); err != nil {
		return err
	}
	if err := validateTraitNames(name); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	credential, err := r.store.Find(ctx, id)
	if err != nil {
		return wrapNotFound(err, id)
	}

	var changed bool
	if value {
		changed = credential.Traits.Add(name)
	} else {
		changed = credential.Traits.Remove(name)
	}
	if changed {
		if err := r.store.Update(ctx, credential); err != nil {
			return fmt.Errorf("set trait on %d: %w", id, err)
		}
	}

	r.emit(ctx, events.TraitUpdated(id, name, value, now))
	return nil
}

// AddSanctions records a screening hit against a credential, overwriting
// any prior match. There is no un-match operation and renewal does not
// clear it. Restricted to the authority.
func (r *Registry) AddSanctions(ctx context.Context, id uint64, jurisdiction uint16) error {
	if err := r.requireAuthority(ctx); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	credential, err := r.store.Find(ctx, id)
	if err != nil {
		return wrapNotFound(err, id)
	}
	match := jurisdiction
	credential.SanctionsMatch = &match
	if err := r.store.Update(ctx, credential); err != nil {
		return fmt.Errorf("record sanctions match on %d: %w", id, err)
	}

	r.metrics.IncrementSanctionsMatch()
	r.emit(ctx, events.SanctionsMatch(id, jurisdiction, now))
	r.logger.InfoContext(ctx, "sanctions match recorded",
		"credential_id", id, "jurisdiction", jurisdiction)
	return nil
}
