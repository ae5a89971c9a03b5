package service

import (
	"time"

	"idregistry/internal/identity/authorizer"
	"idregistry/internal/identity/events"
	"idregistry/internal/identity/models"
	"idregistry/pkg/platform/sentinel"
)

func (s *RegistrySuite) authorization() authorizer.MintAuthorization {
	return authorizer.MintAuthorization{
		Recipient:   holderAddr,
		URI:         "https://example.com/token.json",
		Traits:      []string{"kyc_clear"},
		SubjectType: models.SubjectIndividual,
		Citizenship: 840,
		NotAfter:    s.now.Add(time.Hour),
	}
}

func (s *RegistrySuite) signedRequest(auth authorizer.MintAuthorization, sequence uint64, payment uint64) SelfMintRequest {
	return SelfMintRequest{
		Authorization: auth,
		Signature:     authorizer.Sign(s.signingKey, registryID, chainID, auth, sequence),
		Payment:       payment,
	}
}

func (s *RegistrySuite) TestSelfMintHappyPath() {
	req := s.signedRequest(s.authorization(), 1, DefaultMintCost)

	// a third party may submit on the recipient's behalf; the credential
	// still goes to the recipient named in the signature
	id, err := s.registry.SelfMint(s.asCaller("relayer"), req)
	s.Require().NoError(err)

	credential, err := s.registry.Get(s.asAuthority(), id)
	s.Require().NoError(err)
	s.Equal(holderAddr, credential.Owner)
	s.Equal([]string{"kyc_clear"}, credential.Traits.List())
	s.Equal(credential.MintedAt, credential.LastIssuedAt)

	s.Equal(DefaultMintCost, s.registry.Balance(s.asAuthority()))
	s.Require().Len(s.recorder.OfType(events.TypeIssued), 1)
}

func (s *RegistrySuite) TestSelfMintReplayRejected() {
	req := s.signedRequest(s.authorization(), 1, DefaultMintCost)

	_, err := s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().NoError(err)

	// the identical submission no longer matches the advanced sequence
	_, err = s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().ErrorIs(err, sentinel.ErrInvalidSignature)

	balance, _ := s.registry.BalanceOf(s.asAuthority(), holderAddr)
	s.Equal(1, balance)
}

func (s *RegistrySuite) TestSelfMintExpiredAuthorization() {
	auth := s.authorization()
	auth.NotAfter = s.now.Add(-time.Minute)
	req := s.signedRequest(auth, 1, DefaultMintCost)

	_, err := s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().ErrorIs(err, sentinel.ErrSignatureExpired)

	// a fresh, correctly signed authorization with sequence 1 still works:
	// the failed attempt consumed nothing
	req = s.signedRequest(s.authorization(), 1, DefaultMintCost)
	_, err = s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestSelfMintUnderpaidRetrySucceeds() {
	req := s.signedRequest(s.authorization(), 1, DefaultMintCost-1)

	_, err := s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().ErrorIs(err, sentinel.ErrInsufficientPayment)

	// nothing was minted and the sequence did not advance
	balance, _ := s.registry.BalanceOf(s.asAuthority(), holderAddr)
	s.Equal(0, balance)
	s.Equal(uint64(0), s.registry.Balance(s.asAuthority()))

	// the same signature with adequate payment must still succeed
	req.Payment = DefaultMintCost
	id, err := s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().NoError(err)
	s.Equal(uint64(1), id)
}

func (s *RegistrySuite) TestSelfMintTamperedAuthorization() {
	auth := s.authorization()
	req := s.signedRequest(auth, 1, DefaultMintCost)
	req.Authorization.Traits = []string{"kyc_clear", "accreditation"}

	_, err := s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().ErrorIs(err, sentinel.ErrInvalidSignature)
}

func (s *RegistrySuite) TestSelfMintWithdraw() {
	req := s.signedRequest(s.authorization(), 1, DefaultMintCost+500)
	_, err := s.registry.SelfMint(s.asCaller(holderAddr), req)
	s.Require().NoError(err)

	amount, err := s.registry.Withdraw(s.asAuthority())
	s.Require().NoError(err)
	s.Equal(DefaultMintCost+500, amount)
	s.Equal(uint64(0), s.registry.Balance(s.asAuthority()))
}

func (s *RegistrySuite) TestSelfMintSequenceAdvancesAcrossRecipients() {
	first := s.signedRequest(s.authorization(), 1, DefaultMintCost)
	_, err := s.registry.SelfMint(s.asCaller(holderAddr), first)
	s.Require().NoError(err)

	// the counter is global, not per recipient
	other := s.authorization()
	other.Recipient = "someone-else"
	stale := s.signedRequest(other, 1, DefaultMintCost)
	_, err = s.registry.SelfMint(s.asCaller("someone-else"), stale)
	s.Require().ErrorIs(err, sentinel.ErrInvalidSignature)

	fresh := s.signedRequest(other, 2, DefaultMintCost)
	id, err := s.registry.SelfMint(s.asCaller("someone-else"), fresh)
	s.Require().NoError(err)
	s.Equal(uint64(2), id)
}
