package sentinel

import "errors"

// Sentinel errors for registry facts. Stores and collaborators return these
// (optionally wrapped) so services and transports can translate them with
// errors.Is.
//
// These represent factual outcomes of an attempted operation, not generic
// failures:
//   - ErrNotFound: credential does not exist (never minted, or burned)
//   - ErrUnauthorized: caller lacks the authority or ownership role required
//   - ErrInvalidSignature: authorization does not verify against the issuing
//     authority's key, including the replay case where the signed sequence
//     number no longer matches the ledger
//   - ErrSignatureExpired: authorization's not-after bound has passed
//   - ErrInsufficientPayment: attached value is below the configured mint cost
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrSignatureExpired    = errors.New("signature expired")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrUnavailable         = errors.New("unavailable")
)
