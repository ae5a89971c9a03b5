package service

import (
	"context"
	"fmt"

	"idregistry/internal/identity/models"
	"idregistry/pkg/platform/sentinel"
)

// MintCost returns the current self-mint price.
func (r *Registry) MintCost(_ context.Context) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mintCost
}

// SetMintCost updates the self-mint price. Restricted to the authority.
func (r *Registry) SetMintCost(ctx context.Context, cost uint64) error {
	if err := r.requireAuthority(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mintCost = cost

	r.logger.InfoContext(ctx, "mint cost updated", "mint_cost", cost)
	return nil
}

// Authority returns the current controlling authority address.
func (r *Registry) Authority(_ context.Context) models.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authority
}

// TransferAuthority hands the controlling role to a new address. Restricted
// to the current authority; takes effect for every later call.
func (r *Registry) TransferAuthority(ctx context.Context, to models.Address) error {
	if err := r.requireAuthority(ctx); err != nil {
		return err
	}
	to = to.Normalize()
	if to.IsZero() {
		return fmt.Errorf("new authority must not be empty: %w", sentinel.ErrUnavailable)
	}

	r.mu.Lock()
	previous := r.authority
	r.authority = to
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "authority transferred", "from", previous, "to", to)
	return nil
}

// Balance returns the accumulated, unwithdrawn self-mint payments.
func (r *Registry) Balance(_ context.Context) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance
}

// Withdraw drains the accumulated payments and returns the amount released.
// Restricted to the authority.
func (r *Registry) Withdraw(ctx context.Context) (uint64, error) {
	if err := r.requireAuthority(ctx); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	amount := r.balance
	r.balance = 0

	r.logger.InfoContext(ctx, "balance withdrawn", "amount", amount)
	return amount, nil
}
