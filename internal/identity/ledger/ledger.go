// Package ledger provides the ownership collaborator the registry consumes:
// unique assignment of credential ids to owners, enumeration, transfer, and
// burn. The registry core only relies on the contract expressed by Ledger;
// a host substrate with the same guarantees can replace the in-memory
// implementation.
package ledger

import (
	"context"

	"idregistry/internal/identity/models"
)

// Ledger assigns each credential exactly one owner while it exists and
// guarantees atomic transfer and burn. Ids are allocated monotonically from
// 1 and never reused; 0 is reserved and always invalid.
type Ledger interface {
	// MintTo allocates the next id and assigns it to owner.
	MintTo(ctx context.Context, owner models.Address) (uint64, error)
	// Transfer reassigns id from one owner to another. Returns
	// sentinel.ErrNotFound for unknown ids and sentinel.ErrUnauthorized
	// when from is not the current owner.
	Transfer(ctx context.Context, id uint64, from, to models.Address) error
	// Burn removes id permanently. Subsequent reads fail with
	// sentinel.ErrNotFound.
	Burn(ctx context.Context, id uint64) error
	// OwnerOf returns the current owner of id.
	OwnerOf(ctx context.Context, id uint64) (models.Address, error)
	// BalanceOf returns how many credentials owner currently holds.
	BalanceOf(ctx context.Context, owner models.Address) (int, error)
	// TokenOfOwnerByIndex enumerates owner's holdings in acquisition order.
	TokenOfOwnerByIndex(ctx context.Context, owner models.Address, index int) (uint64, error)
}
