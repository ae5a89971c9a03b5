package service

import (
	"context"
	"fmt"

	"idregistry/internal/identity/events"
	"idregistry/internal/identity/models"
	"idregistry/pkg/platform/sentinel"
	"idregistry/pkg/requestcontext"
)

// RenewRequest carries the fields a renewal replaces.
type RenewRequest struct {
	URI         string
	Traits      []string
	Citizenship uint16
}

// Renew refreshes an existing credential: overwrites its URI, citizenship,
// and whole trait set, and moves LastIssuedAt to now. MintedAt, owner,
// subject type, and any recorded sanctions match are untouched. Restricted
// to the authority.
func (r *Registry) Renew(ctx context.Context, id uint64, req RenewRequest) error {
	ctx, span := r.tracer.Start(ctx, "identity.Renew")
	defer span.End()

	if err := r.requireAuthority(ctx); err != nil {
		return err
	}
	if err := validateTraitNames(req.Traits...); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	credential, err := r.store.Find(ctx, id)
	if err != nil {
		return wrapNotFound(err, id)
	}

	credential.Renew(req.URI, req.Traits, req.Citizenship, now)
	if err := r.store.Update(ctx, credential); err != nil {
		return fmt.Errorf("renew credential %d: %w", id, err)
	}

	r.emit(ctx, events.Renewed(id, now))
	r.logger.InfoContext(ctx, "credential renewed", "credential_id", id)
	return nil
}

// Transfer reassigns a credential to a new holder. Only the current owner
// may transfer.
func (r *Registry) Transfer(ctx context.Context, id uint64, to models.Address) error {
	ctx, span := r.tracer.Start(ctx, "identity.Transfer")
	defer span.End()
	caller := requestcontext.Caller(ctx).Normalize()
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	credential, err := r.store.Find(ctx, id)
	if err != nil {
		return wrapNotFound(err, id)
	}
	if err := r.ledger.Transfer(ctx, id, caller, to); err != nil {
		return err
	}

	from := credential.Owner
	credential.Owner = to.Normalize()
	if err := r.store.Update(ctx, credential); err != nil {
		// put the ledger back so the two views cannot diverge
		if revertErr := r.ledger.Transfer(ctx, id, to, from); revertErr != nil {
			r.logger.ErrorContext(ctx, "transfer revert failed", "credential_id", id, "error", revertErr)
		}
		return fmt.Errorf("transfer credential %d: %w", id, err)
	}

	r.emit(ctx, events.Transferred(id, from, credential.Owner, now))
	return nil
}

// Burn destroys a credential and its trait store. Permitted to the current
// owner or the authority. The id is never reused; later reads fail with
// NotFound.
func (r *Registry) Burn(ctx context.Context, id uint64) error {
	ctx, span := r.tracer.Start(ctx, "identity.Burn")
	defer span.End()
	caller := requestcontext.Caller(ctx).Normalize()
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, err := r.ledger.OwnerOf(ctx, id)
	if err != nil {
		return wrapNotFound(err, id)
	}
	if caller != r.authority && caller != owner {
		return fmt.Errorf("burn of %d requires owner or authority: %w", id, sentinel.ErrUnauthorized)
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return wrapNotFound(err, id)
	}
	if err := r.ledger.Burn(ctx, id); err != nil {
		return fmt.Errorf("burn ledger entry %d: %w", id, err)
	}

	r.metrics.IncrementBurned()
	r.emit(ctx, events.Burned(id, now))
	r.logger.InfoContext(ctx, "credential burned", "credential_id", id, "caller", caller)
	return nil
}
