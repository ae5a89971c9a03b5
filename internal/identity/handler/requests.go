package handler

import (
	"encoding/base64"
	"fmt"
	"time"

	"idregistry/internal/identity/authorizer"
	"idregistry/internal/identity/models"
	"idregistry/internal/identity/service"
)

// MintRequest is the admin mint payload.
type MintRequest struct {
	Owner       string   `json:"owner"`
	URI         string   `json:"uri"`
	Traits      []string `json:"traits"`
	SubjectType string   `json:"subject_type"`
	Citizenship uint16   `json:"citizenship"`
}

func (r MintRequest) toDomain() (service.MintRequest, error) {
	if r.Owner == "" {
		return service.MintRequest{}, fmt.Errorf("owner is required")
	}
	subjectType, err := models.ParseSubjectType(r.SubjectType)
	if err != nil {
		return service.MintRequest{}, err
	}
	return service.MintRequest{
		Owner:       models.Address(r.Owner),
		URI:         r.URI,
		Traits:      r.Traits,
		SubjectType: subjectType,
		Citizenship: r.Citizenship,
	}, nil
}

// SelfMintRequest is the signature-authorized mint payload. NotAfter is
// unix seconds, matching the signed digest; the signature is base64.
type SelfMintRequest struct {
	Recipient   string   `json:"recipient"`
	URI         string   `json:"uri"`
	Traits      []string `json:"traits"`
	SubjectType string   `json:"subject_type"`
	Citizenship uint16   `json:"citizenship"`
	NotAfter    int64    `json:"not_after"`
	Signature   string   `json:"signature"`
	Payment     uint64   `json:"payment"`
}

func (r SelfMintRequest) toDomain() (service.SelfMintRequest, error) {
	if r.Recipient == "" {
		return service.SelfMintRequest{}, fmt.Errorf("recipient is required")
	}
	subjectType, err := models.ParseSubjectType(r.SubjectType)
	if err != nil {
		return service.SelfMintRequest{}, err
	}
	signature, err := base64.StdEncoding.DecodeString(r.Signature)
	if err != nil {
		return service.SelfMintRequest{}, fmt.Errorf("signature must be base64: %w", err)
	}
	return service.SelfMintRequest{
		Authorization: authorizer.MintAuthorization{
			Recipient:   models.Address(r.Recipient),
			URI:         r.URI,
			Traits:      r.Traits,
			SubjectType: subjectType,
			Citizenship: r.Citizenship,
			NotAfter:    time.Unix(r.NotAfter, 0),
		},
		Signature: signature,
		Payment:   r.Payment,
	}, nil
}

// RenewRequest is the admin renewal payload.
type RenewRequest struct {
	URI         string   `json:"uri"`
	Traits      []string `json:"traits"`
	Citizenship uint16   `json:"citizenship"`
}

// SetTraitRequest carries the boolean value of the set-trait path. A
// missing value defaults to true, making PUT idempotent with the add path.
type SetTraitRequest struct {
	Value *bool `json:"value"`
}

// SanctionsRequest records a screening hit.
type SanctionsRequest struct {
	Jurisdiction uint16 `json:"jurisdiction"`
}

// TransferRequest reassigns a credential.
type TransferRequest struct {
	To string `json:"to"`
}

// MintCostRequest updates the self-mint price.
type MintCostRequest struct {
	MintCost uint64 `json:"mint_cost"`
}

// AuthorityRequest hands the controlling role to a new address.
type AuthorityRequest struct {
	Authority string `json:"authority"`
}
