package funds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"folio/internal/events"
	"folio/internal/registry/bank"
	"folio/internal/registry/bank/mock"
	"folio/internal/registry/models"
	"folio/internal/registry/state"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

const (
	registryOwner = models.Address("addr-registry-owner")
	adminAddr     = models.Address("addr-admin")
	alice         = models.Address("addr-alice")
	payout        = models.Address("addr-payout")
)

type FundsServiceSuite struct {
	suite.Suite
	store      *state.Memory
	bank       *bank.Memory
	eventStore *events.MemoryStore
	svc        *Service
}

func TestFundsServiceSuite(t *testing.T) {
	suite.Run(t, new(FundsServiceSuite))
}

func (s *FundsServiceSuite) SetupTest() {
	registry := state.NewRegistry(registryOwner, payout, models.Pricing{
		MonthlyCost:            5000,
		TwelveMonthDiscountPct: 20,
		ShortNameThreshold:     6,
		ShortNameMultiplier:    10,
	})
	registry.Admins[adminAddr] = struct{}{}
	s.store = state.NewMemory(registry)
	s.bank = bank.NewMemory()
	s.eventStore = events.NewMemoryStore()
	s.svc = New(s.store, s.bank, events.NewPublisher(s.eventStore))
}

func (s *FundsServiceSuite) ctx(caller models.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), caller)
}

func (s *FundsServiceSuite) TestDonateFromAnyone() {
	s.Require().NoError(s.svc.Donate(s.ctx(alice), 1234))

	balance, err := s.svc.Balance(s.ctx(alice))
	s.Require().NoError(err)
	s.Equal(models.Amount(1234), balance)

	evts, err := s.eventStore.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(evts, 1)
	s.Equal(events.TypeDonationReceived, evts[0].Type)
	s.Equal(alice, evts[0].Actor)
}

func (s *FundsServiceSuite) TestReceiveUnmatchedPayment() {
	s.Require().NoError(s.svc.Receive(s.ctx(alice), 777))

	balance, err := s.svc.Balance(s.ctx(alice))
	s.Require().NoError(err)
	s.Equal(models.Amount(777), balance)

	evts, err := s.eventStore.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(evts, 1)
	s.Equal(events.TypeFundsReceived, evts[0].Type)
}

func (s *FundsServiceSuite) TestWithdraw() {
	s.Require().NoError(s.svc.Donate(s.ctx(alice), 10000))

	s.Require().NoError(s.svc.Withdraw(s.ctx(registryOwner), 6000))

	balance, err := s.svc.Balance(s.ctx(registryOwner))
	s.Require().NoError(err)
	s.Equal(models.Amount(4000), balance)
	s.Equal(models.Amount(6000), s.bank.Received(payout))
}

func (s *FundsServiceSuite) TestWithdrawAdminAllowed() {
	s.Require().NoError(s.svc.Donate(s.ctx(alice), 5000))
	s.Require().NoError(s.svc.Withdraw(s.ctx(adminAddr), 5000))
	s.Equal(models.Amount(5000), s.bank.Received(payout))
}

func (s *FundsServiceSuite) TestWithdrawUnprivileged() {
	s.Require().NoError(s.svc.Donate(s.ctx(alice), 5000))

	err := s.svc.Withdraw(s.ctx(alice), 1000)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(models.Amount(0), s.bank.Received(payout))
}

func (s *FundsServiceSuite) TestWithdrawExceedsBalance() {
	s.Require().NoError(s.svc.Donate(s.ctx(alice), 5000))

	err := s.svc.Withdraw(s.ctx(registryOwner), 5001)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

	balance, err := s.svc.Balance(s.ctx(registryOwner))
	s.Require().NoError(err)
	s.Equal(models.Amount(5000), balance)
}

func (s *FundsServiceSuite) TestWithdrawTransferFailureRestoresBalance() {
	ctrl := gomock.NewController(s.T())
	rejecting := mock.NewMockBank(ctrl)
	rejecting.EXPECT().
		Transfer(gomock.Any(), payout, models.Amount(3000)).
		Return(bank.ErrTransferRejected)
	svc := New(s.store, rejecting, events.NewPublisher(s.eventStore))

	s.Require().NoError(s.svc.Donate(s.ctx(alice), 5000))

	err := svc.Withdraw(s.ctx(registryOwner), 3000)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

	// The debit staged before the transfer is rolled back wholesale.
	balance, err := s.svc.Balance(s.ctx(registryOwner))
	s.Require().NoError(err)
	s.Equal(models.Amount(5000), balance)
}

func (s *FundsServiceSuite) TestUpdatePayoutAddress() {
	next := models.Address("addr-new-payout")
	s.Require().NoError(s.svc.UpdatePayoutAddress(s.ctx(registryOwner), next))

	s.Require().NoError(s.svc.Donate(s.ctx(alice), 1000))
	s.Require().NoError(s.svc.Withdraw(s.ctx(registryOwner), 1000))
	s.Equal(models.Amount(1000), s.bank.Received(next))
	s.Equal(models.Amount(0), s.bank.Received(payout))
}

func (s *FundsServiceSuite) TestUpdatePayoutAddressOwnerOnly() {
	// Admins configure nothing; payout address is owner territory.
	err := s.svc.UpdatePayoutAddress(s.ctx(adminAddr), "addr-elsewhere")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *FundsServiceSuite) TestUpdatePricingKnobs() {
	ctx := s.ctx(registryOwner)
	s.Require().NoError(s.svc.UpdateMonthlyCost(ctx, 9000))
	s.Require().NoError(s.svc.UpdateDiscount(ctx, 50))
	s.Require().NoError(s.svc.UpdateShortNameThreshold(ctx, 4))
	s.Require().NoError(s.svc.UpdateShortNameMultiplier(ctx, 3))

	pricing, err := s.svc.Pricing(ctx)
	s.Require().NoError(err)
	s.Equal(models.Pricing{
		MonthlyCost:            9000,
		TwelveMonthDiscountPct: 50,
		ShortNameThreshold:     4,
		ShortNameMultiplier:    3,
	}, pricing)
}

func (s *FundsServiceSuite) TestUpdateDiscountRejectsOver100() {
	err := s.svc.UpdateDiscount(s.ctx(registryOwner), 101)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidDiscount))

	pricing, err := s.svc.Pricing(s.ctx(registryOwner))
	s.Require().NoError(err)
	s.Equal(uint64(20), pricing.TwelveMonthDiscountPct)
}

func (s *FundsServiceSuite) TestUpdatePricingOwnerOnly() {
	for caller := range map[models.Address]struct{}{adminAddr: {}, alice: {}} {
		err := s.svc.UpdateMonthlyCost(s.ctx(caller), 1)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "caller=%s", caller)
	}
}
