// Package funds implements the escrow ledger: the registry's held balance,
// the configured payout address, and the owner-mutable pricing knobs.
package funds

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"folio/internal/events"
	"folio/internal/registry/access"
	"folio/internal/registry/bank"
	registrymetrics "folio/internal/registry/metrics"
	"folio/internal/registry/models"
	"folio/internal/registry/state"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

// Service mutates the ledger. Withdrawals stage the balance change, attempt
// the outbound transfer, and commit only if the transfer succeeds.
type Service struct {
	store   state.Store
	bank    bank.Bank
	events  *events.Publisher
	metrics *registrymetrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store state.Store, b bank.Bank, publisher *events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		bank:   b,
		events: publisher,
		logger: slog.Default(),
		tracer: otel.Tracer("folio/registry/funds"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Donate credits an attached payment to the registry balance. Accepted from
// anyone, unconditionally.
func (s *Service) Donate(ctx context.Context, payment models.Amount) error {
	ctx, span := s.tracer.Start(ctx, "funds.Donate")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		r.Balance += payment
		s.gaugeBalance(r.Balance)
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Type:   events.TypeDonationReceived,
		Actor:  caller,
		Amount: payment,
	})
	return nil
}

// Receive credits an unsolicited incoming payment that matched no
// operation. It is accepted rather than rejected and announced with a
// distinct event type.
func (s *Service) Receive(ctx context.Context, payment models.Amount) error {
	ctx, span := s.tracer.Start(ctx, "funds.Receive")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		r.Balance += payment
		s.gaugeBalance(r.Balance)
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Type:   events.TypeFundsReceived,
		Actor:  caller,
		Amount: payment,
	})
	return nil
}

// Withdraw moves amount from the held balance to the configured payout
// address. Owner or admin only. A rejected transfer aborts the withdrawal
// with the balance unchanged.
func (s *Service) Withdraw(ctx context.Context, amount models.Amount) error {
	ctx, span := s.tracer.Start(ctx, "funds.Withdraw")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	var payout models.Address
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := access.RequirePrivileged(r, caller); err != nil {
			return err
		}
		if amount > r.Balance {
			return dErrors.Newf(dErrors.CodeInsufficientBalance, "withdrawal %d exceeds balance %d", amount, r.Balance)
		}
		r.Balance -= amount
		payout = r.PayoutAddress
		if err := s.bank.Transfer(ctx, payout, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "payout transfer rejected")
		}
		s.gaugeBalance(r.Balance)
		return nil
	})
	if err != nil {
		s.fail("withdraw", err)
		return err
	}
	s.emit(ctx, events.Event{
		Type:    events.TypeFundsWithdrawn,
		Actor:   caller,
		Subject: payout,
		Amount:  amount,
	})
	if s.metrics != nil {
		s.metrics.ObserveOperation("withdraw", start)
	}
	return nil
}

// Balance reports the currently held balance.
func (s *Service) Balance(ctx context.Context) (models.Amount, error) {
	var balance models.Amount
	err := s.store.View(ctx, func(r *state.Registry) error {
		balance = r.Balance
		return nil
	})
	return balance, err
}

// UpdatePayoutAddress points withdrawals at a new address. Owner only.
func (s *Service) UpdatePayoutAddress(ctx context.Context, addr models.Address) error {
	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := access.RequireOwner(r, caller); err != nil {
			return err
		}
		r.PayoutAddress = addr
		return nil
	})
	if err != nil {
		s.fail("update_payout_address", err)
		return err
	}
	s.emit(ctx, events.Event{
		Type:    events.TypePayoutAddressUpdated,
		Actor:   caller,
		Subject: addr,
	})
	return nil
}

// UpdateMonthlyCost sets the base monthly reservation cost. Owner only.
// Applies prospectively; existing reservations are never repriced.
func (s *Service) UpdateMonthlyCost(ctx context.Context, cost models.Amount) error {
	return s.updatePricing(ctx, "monthly_cost", func(p *models.Pricing) error {
		p.MonthlyCost = cost
		return nil
	})
}

// UpdateDiscount sets the twelve-month discount percentage. Owner only.
func (s *Service) UpdateDiscount(ctx context.Context, pct uint64) error {
	return s.updatePricing(ctx, "twelve_month_discount", func(p *models.Pricing) error {
		if pct > 100 {
			return dErrors.Newf(dErrors.CodeInvalidDiscount, "discount %d exceeds 100", pct)
		}
		p.TwelveMonthDiscountPct = pct
		return nil
	})
}

// UpdateShortNameThreshold sets the length below which a name is "short".
// Owner only.
func (s *Service) UpdateShortNameThreshold(ctx context.Context, threshold int) error {
	return s.updatePricing(ctx, "short_name_threshold", func(p *models.Pricing) error {
		p.ShortNameThreshold = threshold
		return nil
	})
}

// UpdateShortNameMultiplier sets the price multiplier for short names.
// Owner only.
func (s *Service) UpdateShortNameMultiplier(ctx context.Context, multiplier uint64) error {
	return s.updatePricing(ctx, "short_name_multiplier", func(p *models.Pricing) error {
		p.ShortNameMultiplier = multiplier
		return nil
	})
}

// Pricing returns the current pricing configuration.
func (s *Service) Pricing(ctx context.Context) (models.Pricing, error) {
	var pricing models.Pricing
	err := s.store.View(ctx, func(r *state.Registry) error {
		pricing = r.Pricing
		return nil
	})
	return pricing, err
}

func (s *Service) updatePricing(ctx context.Context, parameter string, apply func(*models.Pricing) error) error {
	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := access.RequireOwner(r, caller); err != nil {
			return err
		}
		return apply(&r.Pricing)
	})
	if err != nil {
		s.fail("update_pricing", err)
		return err
	}
	s.emit(ctx, events.Event{
		Type:  events.TypePricingUpdated,
		Actor: caller,
		Name:  parameter,
	})
	return nil
}

func (s *Service) gaugeBalance(balance models.Amount) {
	if s.metrics != nil {
		s.metrics.BalanceHeld.Set(float64(balance))
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "emit event failed", "type", event.Type, "error", err)
	}
}

func (s *Service) fail(operation string, err error) {
	if s.metrics != nil {
		s.metrics.IncrementFailure(operation, string(dErrors.CodeOf(err)))
	}
}
