package handler

import (
	"time"

	"idregistry/internal/identity/models"
)

// CredentialResponse is the read model for one credential, including the
// derived validity predicates at the request time.
type CredentialResponse struct {
	ID             uint64    `json:"id"`
	Owner          string    `json:"owner"`
	URI            string    `json:"uri"`
	MintedAt       time.Time `json:"minted_at"`
	LastIssuedAt   time.Time `json:"last_issued_at"`
	SubjectType    string    `json:"subject_type"`
	Citizenship    uint16    `json:"citizenship"`
	SanctionsMatch *uint16   `json:"sanctions_match,omitempty"`
	Traits         []string  `json:"traits"`

	SanctionsMonitored bool `json:"sanctions_monitored"`
	SanctionsSafe      bool `json:"sanctions_safe"`
	Unexpired          bool `json:"unexpired"`
}

func toCredentialResponse(c *models.Credential, now time.Time, expiryWindow time.Duration) CredentialResponse {
	return CredentialResponse{
		ID:             c.ID,
		Owner:          string(c.Owner),
		URI:            c.MetadataURI,
		MintedAt:       c.MintedAt,
		LastIssuedAt:   c.LastIssuedAt,
		SubjectType:    c.SubjectType.String(),
		Citizenship:    c.Citizenship,
		SanctionsMatch: c.SanctionsMatch,
		Traits:         c.Traits.List(),

		SanctionsMonitored: c.SanctionsMonitored(now),
		SanctionsSafe:      c.SanctionsSafe(now),
		Unexpired:          c.Unexpired(now, expiryWindow),
	}
}

// MintResponse returns the issued credential id.
type MintResponse struct {
	ID uint64 `json:"id"`
}

// OwnerCredentialsResponse lists a holder's credential ids.
type OwnerCredentialsResponse struct {
	Owner       string   `json:"owner"`
	Credentials []uint64 `json:"credentials"`
}

// WithdrawResponse reports the released amount.
type WithdrawResponse struct {
	Amount uint64 `json:"amount"`
}
