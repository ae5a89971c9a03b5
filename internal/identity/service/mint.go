package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"idregistry/internal/identity/authorizer"
	"idregistry/internal/identity/events"
	"idregistry/internal/identity/models"
	"idregistry/internal/identity/traits"
	"idregistry/pkg/platform/sentinel"
	"idregistry/pkg/requestcontext"
)

// MintRequest carries the fields of an authority-issued credential.
type MintRequest struct {
	Owner       models.Address
	URI         string
	Traits      []string
	SubjectType models.SubjectType
	Citizenship uint16
}

// Mint issues a new credential directly. Restricted to the authority.
func (r *Registry) Mint(ctx context.Context, req MintRequest) (uint64, error) {
	ctx, span := r.tracer.Start(ctx, "identity.Mint")
	defer span.End()
	start := time.Now()

	if err := r.requireAuthority(ctx); err != nil {
		return 0, err
	}
	if !req.SubjectType.Valid() {
		return 0, fmt.Errorf("unknown subject type %d: %w", req.SubjectType, sentinel.ErrUnavailable)
	}
	if err := validateTraitNames(req.Traits...); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.issue(ctx, req.Owner, req.URI, req.Traits, req.SubjectType, req.Citizenship)
	if err != nil {
		return 0, err
	}

	r.metrics.IncrementIssued()
	r.metrics.ObserveMint(start)
	r.logger.InfoContext(ctx, "credential minted",
		"credential_id", id,
		"owner", req.Owner.Normalize(),
		"subject_type", req.SubjectType.String(),
	)
	return id, nil
}

// SelfMintRequest is a holder-submitted mint attempt backed by a detached
// authority signature. Payment is the value attached to the attempt; it is
// not part of the signed digest.
type SelfMintRequest struct {
	Authorization authorizer.MintAuthorization
	Signature     []byte
	Payment       uint64
}

// SelfMint validates a signed authorization and, on success, issues the
// credential to the recipient named in the signature (not necessarily the
// caller: a third party may submit on the recipient's behalf).
//
// Checks short-circuit in a fixed order before any state changes:
// signature (which subsumes replay), expiry, then payment. The sequence
// advances exactly once per acceptance and never on a failed attempt, so an
// underpaid attempt can be retried with the same signature.
func (r *Registry) SelfMint(ctx context.Context, req SelfMintRequest) (uint64, error) {
	ctx, span := r.tracer.Start(ctx, "identity.SelfMint")
	defer span.End()
	start := time.Now()
	now := requestcontext.Now(ctx)

	if r.authorizer == nil {
		return 0, fmt.Errorf("no authority key configured: %w", sentinel.ErrUnavailable)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sequence, err := r.authorizer.Validate(ctx, req.Authorization, req.Signature, now)
	if err != nil {
		r.observeSelfMintFailure(ctx, err)
		return 0, err
	}

	if req.Payment < r.mintCost {
		r.metrics.ObserveSelfMint("underpaid")
		return 0, fmt.Errorf("attached %d below mint cost %d: %w",
			req.Payment, r.mintCost, sentinel.ErrInsufficientPayment)
	}

	auth := req.Authorization
	id, err := r.issue(ctx, auth.Recipient, auth.URI, auth.Traits, auth.SubjectType, auth.Citizenship)
	if err != nil {
		return 0, err
	}

	// Consuming the sequence can only fail if another instance advanced the
	// shared ledger between Validate and here. Roll the mint back so
	// acceptance stays the sole way the counter moves.
	if err := r.authorizer.Consume(ctx, sequence); err != nil {
		r.rollbackIssue(ctx, id)
		r.metrics.ObserveSelfMint("invalid_signature")
		return 0, sentinel.ErrInvalidSignature
	}

	r.balance += req.Payment
	r.metrics.ObserveSelfMint("accepted")
	r.metrics.IncrementIssued()
	r.metrics.ObserveMint(start)
	r.logger.InfoContext(ctx, "credential self-minted",
		"credential_id", id,
		"recipient", auth.Recipient.Normalize(),
		"sequence", sequence,
	)
	return id, nil
}

// issue creates the record and its ownership entry. Callers hold r.mu.
func (r *Registry) issue(ctx context.Context, owner models.Address, uri string, traitNames []string, subjectType models.SubjectType, citizenship uint16) (uint64, error) {
	now := requestcontext.Now(ctx)

	id, err := r.ledger.MintTo(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("allocate credential: %w", err)
	}

	credential := &models.Credential{
		ID:           id,
		Owner:        owner.Normalize(),
		MetadataURI:  uri,
		MintedAt:     now,
		LastIssuedAt: now,
		SubjectType:  subjectType,
		Citizenship:  citizenship,
		Traits:       traits.New(traitNames...),
	}
	if err := r.store.Create(ctx, credential); err != nil {
		// compensate so a failed mint leaves no ownership entry behind
		if burnErr := r.ledger.Burn(ctx, id); burnErr != nil {
			r.logger.ErrorContext(ctx, "orphaned ledger entry after failed mint",
				"credential_id", id, "error", burnErr)
		}
		return 0, fmt.Errorf("store credential: %w", err)
	}

	r.emit(ctx, events.Issued(id, credential.Owner, now))
	return id, nil
}

// rollbackIssue undoes a mint whose authorization could not be consumed.
func (r *Registry) rollbackIssue(ctx context.Context, id uint64) {
	if err := r.store.Delete(ctx, id); err != nil {
		r.logger.ErrorContext(ctx, "rollback delete failed", "credential_id", id, "error", err)
	}
	if err := r.ledger.Burn(ctx, id); err != nil {
		r.logger.ErrorContext(ctx, "rollback burn failed", "credential_id", id, "error", err)
	}
}

func (r *Registry) observeSelfMintFailure(ctx context.Context, err error) {
	switch {
	case errors.Is(err, sentinel.ErrSignatureExpired):
		r.metrics.ObserveSelfMint("expired")
	case errors.Is(err, sentinel.ErrInvalidSignature):
		r.metrics.ObserveSelfMint("invalid_signature")
	default:
		r.metrics.ObserveSelfMint("error")
	}
	r.logger.InfoContext(ctx, "self-mint rejected", "error", err)
}
