package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"folio/internal/events"
	"folio/internal/registry/models"
	"folio/internal/registry/state"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

const (
	registryOwner = models.Address("addr-registry-owner")
	adminAddr     = models.Address("addr-admin")
	alice         = models.Address("addr-alice")
	bob           = models.Address("addr-bob")
)

type AccessServiceSuite struct {
	suite.Suite
	store      *state.Memory
	eventStore *events.MemoryStore
	svc        *Service
}

func TestAccessServiceSuite(t *testing.T) {
	suite.Run(t, new(AccessServiceSuite))
}

func (s *AccessServiceSuite) SetupTest() {
	registry := state.NewRegistry(registryOwner, "addr-payout", models.Pricing{MonthlyCost: 5000})
	registry.Admins[adminAddr] = struct{}{}
	s.store = state.NewMemory(registry)
	s.eventStore = events.NewMemoryStore()
	s.svc = New(s.store, events.NewPublisher(s.eventStore))
}

func (s *AccessServiceSuite) ctx(caller models.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), caller)
}

func (s *AccessServiceSuite) TestTransferOwnership() {
	s.Require().NoError(s.svc.TransferOwnership(s.ctx(registryOwner), alice))

	owner, _, _, err := s.svc.Roles(s.ctx(alice), alice)
	s.Require().NoError(err)
	s.True(owner)

	// The old owner is fully demoted.
	err = s.svc.TransferOwnership(s.ctx(registryOwner), bob)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AccessServiceSuite) TestTransferOwnershipRejectsZeroAddress() {
	err := s.svc.TransferOwnership(s.ctx(registryOwner), models.ZeroAddress)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTarget))
}

func (s *AccessServiceSuite) TestTransferOwnershipAdminForbidden() {
	err := s.svc.TransferOwnership(s.ctx(adminAddr), alice)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AccessServiceSuite) TestGrantAndRevokeAdmin() {
	s.Require().NoError(s.svc.GrantAdmin(s.ctx(registryOwner), alice))

	_, admin, _, err := s.svc.Roles(s.ctx(alice), alice)
	s.Require().NoError(err)
	s.True(admin)

	s.Require().NoError(s.svc.RevokeAdmin(s.ctx(registryOwner), alice))
	_, admin, _, err = s.svc.Roles(s.ctx(alice), alice)
	s.Require().NoError(err)
	s.False(admin)
}

func (s *AccessServiceSuite) TestAdminCannotManageAdmins() {
	err := s.svc.GrantAdmin(s.ctx(adminAddr), alice)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	err = s.svc.RevokeAdmin(s.ctx(adminAddr), adminAddr)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AccessServiceSuite) TestBlockAndUnblock() {
	s.Require().NoError(s.svc.Block(s.ctx(adminAddr), alice))

	_, _, blocked, err := s.svc.Roles(s.ctx(alice), alice)
	s.Require().NoError(err)
	s.True(blocked)

	s.Require().NoError(s.svc.Unblock(s.ctx(registryOwner), alice))
	_, _, blocked, err = s.svc.Roles(s.ctx(alice), alice)
	s.Require().NoError(err)
	s.False(blocked)
}

func (s *AccessServiceSuite) TestBlockRequiresPrivilege() {
	err := s.svc.Block(s.ctx(alice), bob)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	err = s.svc.Unblock(s.ctx(alice), bob)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AccessServiceSuite) TestEventsEmitted() {
	s.Require().NoError(s.svc.GrantAdmin(s.ctx(registryOwner), alice))
	s.Require().NoError(s.svc.Block(s.ctx(registryOwner), bob))

	evts, err := s.eventStore.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(evts, 2)
	s.Equal(events.TypeAdminGranted, evts[0].Type)
	s.Equal(alice, evts[0].Subject)
	s.Equal(events.TypeBlacklistAdded, evts[1].Type)
	s.Equal(bob, evts[1].Subject)
}

func TestPredicates(t *testing.T) {
	r := state.NewRegistry(registryOwner, "addr-payout", models.Pricing{})
	r.Admins[adminAddr] = struct{}{}
	r.Blacklist[bob] = struct{}{}

	if !IsOwner(r, registryOwner) || IsOwner(r, adminAddr) {
		t.Fatal("owner predicate mismatch")
	}
	if !IsAdmin(r, adminAddr) || IsAdmin(r, registryOwner) {
		t.Fatal("admin predicate mismatch")
	}
	if !IsPrivileged(r, registryOwner) || !IsPrivileged(r, adminAddr) || IsPrivileged(r, alice) {
		t.Fatal("privileged predicate mismatch")
	}
	if !IsBlocked(r, bob) || IsBlocked(r, alice) {
		t.Fatal("blocked predicate mismatch")
	}
}
