// Package authorizer validates detached mint authorizations: messages signed
// off-system by the issuing authority that let the named recipient mint
// their own credential exactly once.
//
// Replay protection is a single strictly increasing sequence counter. The
// counter's current value is folded into the signed digest, so once a mint
// advances it, every previously issued signature stops reproducing the
// digest its signer actually signed and can never validate again. There is
// no used-signature set.
package authorizer

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"hash"
	"math"
	"time"

	"golang.org/x/crypto/sha3"

	"idregistry/internal/identity/models"
	"idregistry/internal/identity/traits"
	"idregistry/pkg/platform/sentinel"
)

// MintAuthorization is the payload the authority signs. Every field is
// covered by the digest; altering any of them invalidates the signature.
type MintAuthorization struct {
	Recipient   models.Address
	URI         string
	Traits      []string
	SubjectType models.SubjectType
	Citizenship uint16
	NotAfter    time.Time
}

// SequenceStore holds the replay ledger: the sequence number expected in the
// next valid authorization. It starts at 1 and only Advance moves it, by
// exactly 1 per accepted mint.
type SequenceStore interface {
	// Next returns the sequence number the next authorization must carry.
	Next(ctx context.Context) (uint64, error)
	// Advance moves the counter past current. It fails if the stored value
	// no longer equals current, so two racing accepts cannot both land.
	Advance(ctx context.Context, current uint64) error
}

// Authorizer checks authorizations against the configured authority key and
// the replay ledger.
type Authorizer struct {
	authority  ed25519.PublicKey
	registryID string
	chainID    uint64
	sequences  SequenceStore
}

// New constructs an Authorizer. registryID and chainID scope signatures to
// one deployment: a signature minted for another registry instance or
// domain never validates here.
func New(authority ed25519.PublicKey, registryID string, chainID uint64, sequences SequenceStore) *Authorizer {
	return &Authorizer{
		authority:  authority,
		registryID: registryID,
		chainID:    chainID,
		sequences:  sequences,
	}
}

// Validate checks an authorization and returns the sequence number it
// consumed. Checks run in order and short-circuit: signature first (which
// subsumes replay), then the expiry bound. Payment is checked by the
// caller because it is not part of the signed digest; a payment failure
// must not consume the sequence.
//
// The caller commits the consumed sequence with Consume after the mint
// succeeds.
func (a *Authorizer) Validate(ctx context.Context, auth MintAuthorization, signature []byte, now time.Time) (uint64, error) {
	// An authorization that cannot be encoded canonically can never match
	// what the authority signed: a trait name carrying the separator would
	// make two distinct lists hash identically, and a field beyond the
	// 2-byte length prefix would truncate.
	for _, name := range auth.Traits {
		if !traits.ValidName(name) {
			return 0, fmt.Errorf("unencodable trait name %q: %w", name, sentinel.ErrInvalidSignature)
		}
	}
	if len(auth.Recipient) > math.MaxUint16 || len(auth.URI) > math.MaxUint16 {
		return 0, fmt.Errorf("field exceeds digest length prefix: %w", sentinel.ErrInvalidSignature)
	}

	sequence, err := a.sequences.Next(ctx)
	if err != nil {
		return 0, fmt.Errorf("read replay ledger: %w", err)
	}

	digest := a.Digest(auth, sequence)
	if len(signature) != ed25519.SignatureSize || !ed25519.Verify(a.authority, digest, signature) {
		return 0, sentinel.ErrInvalidSignature
	}

	if now.After(auth.NotAfter) {
		return 0, sentinel.ErrSignatureExpired
	}

	return sequence, nil
}

// Consume advances the replay ledger past the sequence a successful mint
// used. Call exactly once per accepted authorization, inside the same
// critical section as Validate and the mint itself.
func (a *Authorizer) Consume(ctx context.Context, sequence uint64) error {
	if err := a.sequences.Advance(ctx, sequence); err != nil {
		return fmt.Errorf("advance replay ledger: %w", err)
	}
	return nil
}

// Digest builds the canonical digest for an authorization bound to a
// specific sequence number. The encoding is fixed so independent
// implementations produce identical bytes:
//
//	len16(recipient) recipient
//	len16(uri) uri
//	keccak256(trait[0] SEP trait[1] SEP ... SEP)
//	uint8(subjectType)
//	uint16be(citizenship)
//	uint64be(notAfter unix seconds)
//	len16(registryID) registryID
//	uint64be(sequence)
//	uint64be(chainID)
//
// hashed with Keccak-256. Variable-length fields carry a 2-byte big-endian
// length prefix so adjacent fields cannot be reinterpreted.
func (a *Authorizer) Digest(auth MintAuthorization, sequence uint64) []byte {
	h := sha3.NewLegacyKeccak256()

	writeString(h, string(auth.Recipient.Normalize()))
	writeString(h, auth.URI)
	h.Write(hashTraits(auth.Traits))
	h.Write([]byte{byte(auth.SubjectType)})
	writeUint16(h, auth.Citizenship)
	writeUint64(h, uint64(auth.NotAfter.Unix()))
	writeString(h, a.registryID)
	writeUint64(h, sequence)
	writeUint64(h, a.chainID)

	return h.Sum(nil)
}

// hashTraits produces the order-sensitive content hash of a trait list.
// Names join with traits.Separator plus a trailing separator; Validate
// rejects names containing it, so distinct lists can never collide.
func hashTraits(names []string) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte(traits.Separator))
	}
	return h.Sum(nil)
}

func writeString(h hash.Hash, s string) {
	writeUint16(h, uint16(len(s)))
	h.Write([]byte(s))
}

func writeUint16(h hash.Hash, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	h.Write(buf[:])
}

func writeUint64(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

// Sign produces a signature the Validate path accepts for the given
// sequence. Exported for the authority-side issuance tooling and tests.
func Sign(key ed25519.PrivateKey, registryID string, chainID uint64, auth MintAuthorization, sequence uint64) []byte {
	a := &Authorizer{registryID: registryID, chainID: chainID}
	return ed25519.Sign(key, a.Digest(auth, sequence))
}
