package service

import (
	"context"

	"idregistry/internal/identity/models"
	"idregistry/pkg/requestcontext"
)

// Get returns a copy of the credential record.
func (r *Registry) Get(ctx context.Context, id uint64) (*models.Credential, error) {
	credential, err := r.store.Find(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, id)
	}
	return credential, nil
}

// HasTrait reports whether the credential currently asserts name.
func (r *Registry) HasTrait(ctx context.Context, id uint64, name string) (bool, error) {
	credential, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return credential.Traits.Has(name), nil
}

// Traits lists the credential's asserted trait names in first-add order.
func (r *Registry) Traits(ctx context.Context, id uint64) ([]string, error) {
	credential, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return credential.Traits.List(), nil
}

// IsSanctionsMonitored reports whether sanctions screening is still current
// for the credential, derived from the request time.
func (r *Registry) IsSanctionsMonitored(ctx context.Context, id uint64) (bool, error) {
	credential, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return credential.SanctionsMonitored(requestcontext.Now(ctx)), nil
}

// IsSanctionsSafe reports whether the credential is monitored and match-free
// everywhere.
func (r *Registry) IsSanctionsSafe(ctx context.Context, id uint64) (bool, error) {
	credential, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return credential.SanctionsSafe(requestcontext.Now(ctx)), nil
}

// IsSanctionsSafeIn reports whether the credential is monitored and
// match-free in a specific jurisdiction.
func (r *Registry) IsSanctionsSafeIn(ctx context.Context, id uint64, jurisdiction uint16) (bool, error) {
	credential, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return credential.SanctionsSafeIn(requestcontext.Now(ctx), jurisdiction), nil
}

// Unexpired reports whether the credential's validity window from first
// mint has not elapsed.
func (r *Registry) Unexpired(ctx context.Context, id uint64) (bool, error) {
	credential, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return credential.Unexpired(requestcontext.Now(ctx), r.expiryWindow), nil
}

// HasUnexpiredTrait reports whether the credential asserts name and is
// itself unexpired. A trait on an expired credential is not currently
// asserted.
func (r *Registry) HasUnexpiredTrait(ctx context.Context, id uint64, name string) (bool, error) {
	credential, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if !credential.Unexpired(requestcontext.Now(ctx), r.expiryWindow) {
		return false, nil
	}
	return credential.Traits.Has(name), nil
}

// OwnerOf returns the current holder of a credential.
func (r *Registry) OwnerOf(ctx context.Context, id uint64) (models.Address, error) {
	owner, err := r.ledger.OwnerOf(ctx, id)
	if err != nil {
		return "", wrapNotFound(err, id)
	}
	return owner, nil
}

// BalanceOf returns how many credentials the address holds.
func (r *Registry) BalanceOf(ctx context.Context, owner models.Address) (int, error) {
	return r.ledger.BalanceOf(ctx, owner)
}

// CredentialOfOwnerByIndex enumerates an owner's credentials.
func (r *Registry) CredentialOfOwnerByIndex(ctx context.Context, owner models.Address, index int) (uint64, error) {
	return r.ledger.TokenOfOwnerByIndex(ctx, owner, index)
}
