// Package store persists credential records. Implementations return
// sentinel errors; the service layer translates them.
package store

import (
	"context"

	"idregistry/internal/identity/models"
)

// Store is the credential persistence contract. Writes are whole-record:
// the service mutates a copy it read and saves it back under its own
// serialization, so stores never merge concurrent updates.
type Store interface {
	// Create inserts a new credential record.
	Create(ctx context.Context, credential *models.Credential) error
	// Find returns the record for id, or sentinel.ErrNotFound.
	Find(ctx context.Context, id uint64) (*models.Credential, error)
	// Update overwrites the record for credential.ID, or returns
	// sentinel.ErrNotFound if it does not exist.
	Update(ctx context.Context, credential *models.Credential) error
	// Delete removes the record for id, or returns sentinel.ErrNotFound.
	Delete(ctx context.Context, id uint64) error
}
