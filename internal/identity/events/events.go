// Package events defines the structured facts the registry emits and the
// observer interface consumers subscribe through. Emission is decoupled from
// operation results: an operation reports success via its return values, and
// notification delivery is a separate, best-effort concern.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"idregistry/internal/identity/models"
)

// Type names a kind of registry fact.
type Type string

const (
	TypeIssued         Type = "issued"
	TypeRenewed        Type = "renewed"
	TypeTraitAdded     Type = "trait_added"
	TypeTraitRemoved   Type = "trait_removed"
	TypeTraitUpdated   Type = "trait_updated"
	TypeSanctionsMatch Type = "sanctions_match"
	TypeTransferred    Type = "transferred"
	TypeBurned         Type = "burned"
)

// Event is one observable registry fact. Only the fields relevant to the
// type are populated.
type Event struct {
	ID           uuid.UUID      `json:"id"`
	Type         Type           `json:"type"`
	Time         time.Time      `json:"time"`
	CredentialID uint64         `json:"credential_id"`
	Owner        models.Address `json:"owner,omitempty"`
	From         models.Address `json:"from,omitempty"`
	To           models.Address `json:"to,omitempty"`
	Trait        string         `json:"trait,omitempty"`
	TraitValue   *bool          `json:"trait_value,omitempty"`
	Jurisdiction *uint16        `json:"jurisdiction,omitempty"`
}

// Publisher delivers events to external listeners. Implementations must not
// affect the outcome of the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Issued builds the fact emitted when a credential is created, by either
// mint path.
func Issued(id uint64, owner models.Address, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeIssued, Time: at, CredentialID: id, Owner: owner}
}

// Renewed builds the fact emitted when a credential's issuance is refreshed.
func Renewed(id uint64, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeRenewed, Time: at, CredentialID: id}
}

// TraitAdded builds the fact emitted when a trait is asserted.
func TraitAdded(id uint64, trait string, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeTraitAdded, Time: at, CredentialID: id, Trait: trait}
}

// TraitRemoved builds the fact emitted when a trait is dropped.
func TraitRemoved(id uint64, trait string, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeTraitRemoved, Time: at, CredentialID: id, Trait: trait}
}

// TraitUpdated builds the fact emitted by the boolean set-trait path.
func TraitUpdated(id uint64, trait string, value bool, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeTraitUpdated, Time: at, CredentialID: id, Trait: trait, TraitValue: &value}
}

// SanctionsMatch builds the fact emitted when a screening hit is recorded.
func SanctionsMatch(id uint64, jurisdiction uint16, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeSanctionsMatch, Time: at, CredentialID: id, Jurisdiction: &jurisdiction}
}

// Transferred builds the fact emitted when ownership changes hands.
func Transferred(id uint64, from, to models.Address, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeTransferred, Time: at, CredentialID: id, From: from, To: to}
}

// Burned builds the fact emitted when a credential is destroyed.
func Burned(id uint64, at time.Time) Event {
	return Event{ID: uuid.New(), Type: TypeBurned, Time: at, CredentialID: id}
}
