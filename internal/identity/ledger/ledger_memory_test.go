package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"idregistry/pkg/platform/sentinel"
)

type LedgerSuite struct {
	suite.Suite
	ledger *InMemory
	ctx    context.Context
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = NewInMemory()
	s.ctx = context.Background()
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) TestMintAssignsMonotonicIDs() {
	first, err := s.ledger.MintTo(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(1), first)

	second, err := s.ledger.MintTo(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(uint64(2), second)

	owner, err := s.ledger.OwnerOf(s.ctx, first)
	s.Require().NoError(err)
	s.Equal("alice", string(owner))

	balance, err := s.ledger.BalanceOf(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, balance)
}

func (s *LedgerSuite) TestEnumeration() {
	a, _ := s.ledger.MintTo(s.ctx, "alice")
	b, _ := s.ledger.MintTo(s.ctx, "alice")

	got, err := s.ledger.TokenOfOwnerByIndex(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Equal(a, got)

	got, err = s.ledger.TokenOfOwnerByIndex(s.ctx, "alice", 1)
	s.Require().NoError(err)
	s.Equal(b, got)

	_, err = s.ledger.TokenOfOwnerByIndex(s.ctx, "alice", 2)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *LedgerSuite) TestTransfer() {
	id, _ := s.ledger.MintTo(s.ctx, "alice")

	s.Run("non-owner cannot transfer", func() {
		err := s.ledger.Transfer(s.ctx, id, "mallory", "bob")
		s.Require().ErrorIs(err, sentinel.ErrUnauthorized)
	})

	s.Run("owner transfers", func() {
		s.Require().NoError(s.ledger.Transfer(s.ctx, id, "alice", "bob"))

		owner, err := s.ledger.OwnerOf(s.ctx, id)
		s.Require().NoError(err)
		s.Equal("bob", string(owner))

		balance, _ := s.ledger.BalanceOf(s.ctx, "alice")
		s.Equal(0, balance)
	})

	s.Run("unknown id", func() {
		err := s.ledger.Transfer(s.ctx, 999, "alice", "bob")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *LedgerSuite) TestBurnNeverReusesIDs() {
	id, _ := s.ledger.MintTo(s.ctx, "alice")
	s.Require().NoError(s.ledger.Burn(s.ctx, id))

	_, err := s.ledger.OwnerOf(s.ctx, id)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().ErrorIs(s.ledger.Burn(s.ctx, id), sentinel.ErrNotFound)

	next, err := s.ledger.MintTo(s.ctx, "bob")
	s.Require().NoError(err)
	s.Greater(next, id)
}

func (s *LedgerSuite) TestAddressesNormalized() {
	id, _ := s.ledger.MintTo(s.ctx, "  Alice ")

	owner, err := s.ledger.OwnerOf(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("alice", string(owner))

	balance, _ := s.ledger.BalanceOf(s.ctx, "ALICE")
	s.Equal(1, balance)
}
