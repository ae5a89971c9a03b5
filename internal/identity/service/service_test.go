package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idregistry/internal/identity/authorizer"
	"idregistry/internal/identity/events"
	"idregistry/internal/identity/ledger"
	"idregistry/internal/identity/models"
	"idregistry/internal/identity/store"
	"idregistry/pkg/platform/sentinel"
	"idregistry/pkg/requestcontext"
)

const (
	authorityAddr = models.Address("authority")
	holderAddr    = models.Address("holder")
	registryID    = "registry-test"
	chainID       = uint64(31337)
)

type RegistrySuite struct {
	suite.Suite
	registry   *Registry
	ledger     *ledger.InMemory
	recorder   *events.Recorder
	sequences  *authorizer.InMemorySequence
	signingKey ed25519.PrivateKey
	now        time.Time
}

func (s *RegistrySuite) SetupTest() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)

	s.signingKey = priv
	s.ledger = ledger.NewInMemory()
	s.recorder = events.NewRecorder()
	s.sequences = authorizer.NewInMemorySequence()
	s.now = time.Now()

	auth := authorizer.New(pub, registryID, chainID, s.sequences)
	s.registry = New(store.NewInMemory(), s.ledger, auth, authorityAddr,
		WithEvents(s.recorder),
	)
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

// asAuthority returns a context carrying the authority caller and the
// suite's base time.
func (s *RegistrySuite) asAuthority() context.Context {
	ctx := requestcontext.WithCaller(context.Background(), authorityAddr)
	return requestcontext.WithTime(ctx, s.now)
}

// asCaller returns a context for an arbitrary caller at the suite's base time.
func (s *RegistrySuite) asCaller(addr models.Address) context.Context {
	ctx := requestcontext.WithCaller(context.Background(), addr)
	return requestcontext.WithTime(ctx, s.now)
}

// at shifts a context's request time.
func at(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}

func (s *RegistrySuite) mint(traitNames ...string) uint64 {
	id, err := s.registry.Mint(s.asAuthority(), MintRequest{
		Owner:       holderAddr,
		URI:         "uri",
		Traits:      traitNames,
		SubjectType: models.SubjectIndividual,
		Citizenship: 840,
	})
	s.Require().NoError(err)
	return id
}

func (s *RegistrySuite) TestMintInitializesMetadata() {
	id := s.mint("kyc")
	s.Equal(uint64(1), id)

	ctx := s.asAuthority()
	credential, err := s.registry.Get(ctx, id)
	s.Require().NoError(err)

	s.Equal(holderAddr, credential.Owner)
	s.Equal("uri", credential.MetadataURI)
	s.Equal(models.SubjectIndividual, credential.SubjectType)
	s.Equal(uint16(840), credential.Citizenship)
	s.Equal(credential.MintedAt, credential.LastIssuedAt)
	s.Nil(credential.SanctionsMatch)

	balance, err := s.registry.BalanceOf(ctx, holderAddr)
	s.Require().NoError(err)
	s.Equal(1, balance)

	got, err := s.registry.CredentialOfOwnerByIndex(ctx, holderAddr, 0)
	s.Require().NoError(err)
	s.Equal(id, got)

	issued := s.recorder.OfType(events.TypeIssued)
	s.Require().Len(issued, 1)
	s.Equal(id, issued[0].CredentialID)
	s.Equal(holderAddr, issued[0].Owner)
}

func (s *RegistrySuite) TestMintInitializesTraits() {
	id := s.mint("kyc", "aml")
	ctx := s.asAuthority()

	has, err := s.registry.HasTrait(ctx, id, "kyc")
	s.Require().NoError(err)
	s.True(has)

	has, err = s.registry.HasTrait(ctx, id, "other")
	s.Require().NoError(err)
	s.False(has)

	list, err := s.registry.Traits(ctx, id)
	s.Require().NoError(err)
	s.Equal([]string{"kyc", "aml"}, list)
}

func (s *RegistrySuite) TestMintRequiresAuthority() {
	_, err := s.registry.Mint(s.asCaller("rando"), MintRequest{
		Owner:       holderAddr,
		URI:         "uri",
		SubjectType: models.SubjectIndividual,
		Citizenship: 840,
	})
	s.Require().ErrorIs(err, sentinel.ErrUnauthorized)
}

func (s *RegistrySuite) TestRenewReplacesIssuanceFields() {
	id := s.mint("kyc", "aml")

	later := s.now.Add(24 * time.Hour)
	err := s.registry.Renew(at(s.asAuthority(), later), id, RenewRequest{
		URI:         "new",
		Traits:      []string{"kyc", "blah"},
		Citizenship: 834,
	})
	s.Require().NoError(err)

	ctx := s.asAuthority()
	credential, err := s.registry.Get(ctx, id)
	s.Require().NoError(err)

	s.Equal("new", credential.MetadataURI)
	s.Equal(uint16(834), credential.Citizenship)
	s.Equal(models.SubjectIndividual, credential.SubjectType)
	s.Equal(holderAddr, credential.Owner)
	// mintedAt never moves; lastIssuedAt follows the renewal time
	s.True(credential.LastIssuedAt.After(credential.MintedAt))
	s.WithinDuration(later, credential.LastIssuedAt, time.Second)

	// old traits not re-listed are gone entirely
	s.Equal([]string{"kyc", "blah"}, credential.Traits.List())
	has, err := s.registry.HasTrait(ctx, id, "aml")
	s.Require().NoError(err)
	s.False(has)

	// still exactly one credential
	balance, _ := s.registry.BalanceOf(ctx, holderAddr)
	s.Equal(1, balance)
}

func (s *RegistrySuite) TestRenewToEmptyTraits() {
	id := s.mint("kyc", "aml")

	err := s.registry.Renew(s.asAuthority(), id, RenewRequest{URI: "new", Citizenship: 840})
	s.Require().NoError(err)

	list, err := s.registry.Traits(s.asAuthority(), id)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RegistrySuite) TestRenewUnknownCredential() {
	err := s.registry.Renew(s.asAuthority(), 999, RenewRequest{URI: "new"})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RegistrySuite) TestTraitAddRemoveScenario() {
	id := s.mint("kyc_clear")
	ctx := s.asAuthority()

	s.Require().NoError(s.registry.AddTrait(ctx, id, "aml"))
	list, _ := s.registry.Traits(ctx, id)
	s.Equal([]string{"kyc_clear", "aml"}, list)

	s.Require().NoError(s.registry.RemoveTrait(ctx, id, "kyc_clear"))
	list, _ = s.registry.Traits(ctx, id)
	s.Equal([]string{"aml"}, list)

	added := s.recorder.OfType(events.TypeTraitAdded)
	s.Require().Len(added, 1)
	s.Equal("aml", added[0].Trait)

	removed := s.recorder.OfType(events.TypeTraitRemoved)
	s.Require().Len(removed, 1)
	s.Equal("kyc_clear", removed[0].Trait)
}

func (s *RegistrySuite) TestReservedSeparatorRejectedOnAdminPaths() {
	id := s.mint("kyc_clear")

	_, err := s.registry.Mint(s.asAuthority(), MintRequest{
		Owner:  holderAddr,
		Traits: []string{"kyc_clear\x1faml"},
	})
	s.Require().ErrorIs(err, sentinel.ErrUnavailable)

	s.Require().ErrorIs(
		s.registry.AddTrait(s.asAuthority(), id, "kyc\x1fclear"),
		sentinel.ErrUnavailable,
	)
	s.Require().ErrorIs(
		s.registry.SetTrait(s.asAuthority(), id, "", true),
		sentinel.ErrUnavailable,
	)
	s.Require().ErrorIs(
		s.registry.Renew(s.asAuthority(), id, RenewRequest{Traits: []string{"aml\x1f"}}),
		sentinel.ErrUnavailable,
	)

	// nothing leaked into the stored set
	names, err := s.registry.Traits(s.asAuthority(), id)
	s.Require().NoError(err)
	s.Equal([]string{"kyc_clear"}, names)
}

func (s *RegistrySuite) TestTraitOpsIdempotent() {
	id := s.mint("kyc")
	ctx := s.asAuthority()

	// re-adding and removing an absent trait are silent no-ops
	s.Require().NoError(s.registry.AddTrait(ctx, id, "kyc"))
	s.Require().NoError(s.registry.RemoveTrait(ctx, id, "never-there"))

	s.Empty(s.recorder.OfType(events.TypeTraitAdded))
	s.Empty(s.recorder.OfType(events.TypeTraitRemoved))
}

func (s *RegistrySuite) TestSetTraitEmitsUpdates() {
	id := s.mint()
	ctx := s.asAuthority()

	s.Require().NoError(s.registry.SetTrait(ctx, id, "accreditation", true))
	has, _ := s.registry.HasTrait(ctx, id, "accreditation")
	s.True(has)

	s.Require().NoError(s.registry.SetTrait(ctx, id, "accreditation", false))
	has, _ = s.registry.HasTrait(ctx, id, "accreditation")
	s.False(has)

	updated := s.recorder.OfType(events.TypeTraitUpdated)
	s.Require().Len(updated, 2)
	s.True(*updated[0].TraitValue)
	s.False(*updated[1].TraitValue)
}

func (s *RegistrySuite) TestSanctionsLifecycle() {
	id := s.mint("kyc")
	ctx := s.asAuthority()

	safe, _ := s.registry.IsSanctionsSafe(ctx, id)
	s.True(safe)
	safeIn, _ := s.registry.IsSanctionsSafeIn(ctx, id, 840)
	s.True(safeIn)

	s.Require().NoError(s.registry.AddSanctions(ctx, id, 840))

	safe, _ = s.registry.IsSanctionsSafe(ctx, id)
	s.False(safe)
	safeIn, _ = s.registry.IsSanctionsSafeIn(ctx, id, 840)
	s.False(safeIn)
	// still safe in another jurisdiction
	safeIn, _ = s.registry.IsSanctionsSafeIn(ctx, id, 834)
	s.True(safeIn)

	matches := s.recorder.OfType(events.TypeSanctionsMatch)
	s.Require().Len(matches, 1)
	s.Equal(uint16(840), *matches[0].Jurisdiction)
}

func (s *RegistrySuite) TestMonitoringWindowExpires() {
	id := s.mint("kyc")

	future := at(s.asAuthority(), s.now.Add(366*24*time.Hour))

	monitored, _ := s.registry.IsSanctionsMonitored(future, id)
	s.False(monitored)
	// unmonitored implies unsafe
	safe, _ := s.registry.IsSanctionsSafe(future, id)
	s.False(safe)
	safeIn, _ := s.registry.IsSanctionsSafeIn(future, id, 840)
	s.False(safeIn)
}

func (s *RegistrySuite) TestRenewalRestartsMonitoring() {
	id := s.mint("kyc")

	renewAt := s.now.Add(300 * 24 * time.Hour)
	err := s.registry.Renew(at(s.asAuthority(), renewAt), id, RenewRequest{
		URI: "new", Traits: []string{"kyc"}, Citizenship: 840,
	})
	s.Require().NoError(err)

	// 366 days after mint but only 66 after renewal: monitored again
	probe := at(s.asAuthority(), s.now.Add(366*24*time.Hour))
	monitored, _ := s.registry.IsSanctionsMonitored(probe, id)
	s.True(monitored)
}

func (s *RegistrySuite) TestRenewalDoesNotClearSanctionsMatch() {
	// Recorded behavior: renew refreshes issuance but a match stays until
	// product decides otherwise. This test pins that choice.
	id := s.mint("kyc")
	ctx := s.asAuthority()
	s.Require().NoError(s.registry.AddSanctions(ctx, id, 840))

	err := s.registry.Renew(ctx, id, RenewRequest{URI: "new", Traits: []string{"kyc"}, Citizenship: 840})
	s.Require().NoError(err)

	safeIn, _ := s.registry.IsSanctionsSafeIn(ctx, id, 840)
	s.False(safeIn)
}

func (s *RegistrySuite) TestExpiryPredicates() {
	id := s.mint("kyc_clear")
	ctx := s.asAuthority()

	unexpired, _ := s.registry.Unexpired(ctx, id)
	s.True(unexpired)
	has, _ := s.registry.HasUnexpiredTrait(ctx, id, "kyc_clear")
	s.True(has)

	past := at(ctx, s.now.Add(91*24*time.Hour))
	unexpired, _ = s.registry.Unexpired(past, id)
	s.False(unexpired)
	has, _ = s.registry.HasUnexpiredTrait(past, id, "kyc_clear")
	s.False(has)
}

func (s *RegistrySuite) TestBurnByAuthority() {
	id := s.mint("kyc")

	s.Require().NoError(s.registry.Burn(s.asAuthority(), id))

	_, err := s.registry.Get(s.asAuthority(), id)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	balance, _ := s.registry.BalanceOf(s.asAuthority(), holderAddr)
	s.Equal(0, balance)
}

func (s *RegistrySuite) TestBurnByHolder() {
	id := s.mint("kyc")

	s.Require().NoError(s.registry.Burn(s.asCaller(holderAddr), id))

	_, err := s.registry.Get(s.asAuthority(), id)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().Len(s.recorder.OfType(events.TypeBurned), 1)
}

func (s *RegistrySuite) TestBurnByStrangerRejected() {
	id := s.mint("kyc")

	err := s.registry.Burn(s.asCaller("rando"), id)
	s.Require().ErrorIs(err, sentinel.ErrUnauthorized)

	// nothing changed
	_, err = s.registry.Get(s.asAuthority(), id)
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestTransferByOwner() {
	id := s.mint("kyc")

	s.Require().NoError(s.registry.Transfer(s.asCaller(holderAddr), id, "newholder"))

	owner, err := s.registry.OwnerOf(s.asAuthority(), id)
	s.Require().NoError(err)
	s.Equal(models.Address("newholder"), owner)

	moved := s.recorder.OfType(events.TypeTransferred)
	s.Require().Len(moved, 1)
	s.Equal(holderAddr, moved[0].From)
}

func (s *RegistrySuite) TestTransferByNonOwnerRejected() {
	id := s.mint("kyc")

	err := s.registry.Transfer(s.asCaller("rando"), id, "newholder")
	s.Require().ErrorIs(err, sentinel.ErrUnauthorized)
}

func (s *RegistrySuite) TestAuthorityConfigOps() {
	s.Require().NoError(s.registry.SetMintCost(s.asAuthority(), 2500))
	s.Equal(uint64(2500), s.registry.MintCost(context.Background()))

	s.Require().ErrorIs(
		s.registry.SetMintCost(s.asCaller("rando"), 1),
		sentinel.ErrUnauthorized,
	)
	_, err := s.registry.Withdraw(s.asCaller("rando"))
	s.Require().ErrorIs(err, sentinel.ErrUnauthorized)
}

func (s *RegistrySuite) TestTransferAuthority() {
	s.Require().ErrorIs(
		s.registry.TransferAuthority(s.asCaller("rando"), "usurper"),
		sentinel.ErrUnauthorized,
	)
	s.Require().Error(s.registry.TransferAuthority(s.asAuthority(), "  "))

	s.Require().NoError(s.registry.TransferAuthority(s.asAuthority(), "Successor"))
	s.Equal(models.Address("successor"), s.registry.Authority(context.Background()))

	// The old authority loses its powers, the new one gains them.
	s.Require().ErrorIs(
		s.registry.SetMintCost(s.asAuthority(), 1),
		sentinel.ErrUnauthorized,
	)
	s.Require().NoError(s.registry.SetMintCost(s.asCaller("successor"), 1))
}
