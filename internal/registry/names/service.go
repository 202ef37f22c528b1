// Package names implements the reservation engine: paid, time-limited
// bindings of URL-safe names to pages, with lazy tombstoned expiry.
//
// Expiry is a read-time predicate over the stored timestamp. Reads of an
// expired reservation report "unreserved" without mutating anything; the
// underlying entries persist until releaseName clears them or a new
// reservation of the same name overwrites them. An overwrite leaves the
// previous page's reverse mapping stale on purpose.
package names

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

// NameCache is notified after every successful mutation so read-through
// caches never serve a binding this operation changed.
type NameCache interface {
	Invalidate(ctx context.Context, name string)
}

// Service owns reservation lifecycle and pricing. Refunds are part of the
// operation's atomic boundary: effects are staged, the outbound transfer is
// attempted, and only then does the staged state commit. A rejected refund
// discards the reservation it would have paid back.
type Service struct {
	store   state.Store
	bank    bank.Bank
	events  *events.Publisher
	metrics *registrymetrics.Metrics
	cache   NameCache
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

func WithNameCache(c NameCache) Option {
	return func(s *Service) { s.cache = c }
}

func New(store state.Store, b bank.Bank, publisher *events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		bank:   b,
		events: publisher,
		logger: slog.Default(),
		tracer: otel.Tracer("folio/registry/names"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote computes the reservation cost under the current pricing
// configuration. No side effects.
func (s *Service) Quote(ctx context.Context, months int, name string) (models.Amount, error) {
	var cost models.Amount
	err := s.store.View(ctx, func(r *state.Registry) error {
		c, err := Cost(r.Pricing, months, name)
		if err != nil {
			return err
		}
		cost = c
		return nil
	})
	return cost, err
}

// Reserve binds name to pageID for the given term, charging the caller's
// attached payment. Owner and admin callers are never required to cover the
// cost; any payment in excess of cost is refunded, and a refund failure
// aborts the reservation that was just staged.
func (s *Service) Reserve(ctx context.Context, pageID models.PageID, name string, months int, payment models.Amount) (models.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "names.Reserve")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	now := requestcontext.Now(ctx)

	var (
		reservation models.Reservation
		refund      models.Amount
	)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		page := r.Pages[pageID]
		if caller != page.Owner && !access.IsPrivileged(r, caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "page owner, registry owner or admin only")
		}
		if err := access.RequireNotBlocked(r, caller); err != nil {
			return err
		}
		if name == "" {
			return dErrors.New(dErrors.CodeEmptyName, "name must not be empty")
		}
		if _, active := r.ActiveReservation(name, now); active {
			return dErrors.New(dErrors.CodeAlreadyReserved, "name already holds an active reservation")
		}
		if !models.ValidName(name) {
			return dErrors.New(dErrors.CodeInvalidName, "name must contain only letters, digits, hyphen or underscore")
		}

		cost, err := Cost(r.Pricing, months, name)
		if err != nil {
			return err
		}
		waived := access.IsPrivileged(r, caller)
		if !waived && payment < cost {
			return dErrors.Newf(dErrors.CodeInsufficientPayment, "payment %d below cost %d", payment, cost)
		}
		if payment > cost {
			refund = payment - cost
		}

		// A re-reservation of a lapsed name overwrites the old forward
		// mapping; the previous page's reverse entry is left stale.
		r.NameToPage[name] = pageID
		r.PageToName[pageID] = name
		r.Expiries[pageID] = now.Add(models.TermDuration(months))
		r.Balance += payment - refund

		reservation = models.Reservation{Name: name, PageID: pageID, Expiry: r.Expiries[pageID]}

		if refund > 0 {
			if err := s.bank.Transfer(ctx, caller, refund); err != nil {
				return dErrors.Wrap(err, dErrors.CodeTransferFailed, "refund transfer rejected")
			}
		}
		return nil
	})
	if err != nil {
		s.fail("reserve_name", err)
		return models.Reservation{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, name)
	}
	s.emit(ctx, events.Event{
		Type:   events.TypeNameReserved,
		Actor:  caller,
		PageID: pageID,
		Name:   name,
		Amount: payment - refund,
		Refund: refund,
		Expiry: reservation.Expiry,
	})
	if s.metrics != nil {
		s.metrics.NamesReserved.Inc()
		s.metrics.ObserveOperation("reserve_name", start)
	}
	return reservation, nil
}

// Extend adds the term's duration to the reservation's stored expiry. The
// addition is relative to the existing timestamp, never to "now", so prepaid
// remaining time is kept. An expired reservation cannot be extended; it must
// be re-reserved from scratch.
func (s *Service) Extend(ctx context.Context, name string, months int, payment models.Amount) (models.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "names.Extend")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	now := requestcontext.Now(ctx)

	var (
		reservation models.Reservation
		refund      models.Amount
	)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		pageID, active := r.ActiveReservation(name, now)
		if !active {
			return dErrors.New(dErrors.CodeNotReserved, "name holds no active reservation")
		}
		page := r.Pages[pageID]
		if caller != page.Owner && !access.IsPrivileged(r, caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "page owner, registry owner or admin only")
		}
		if err := access.RequireNotBlocked(r, caller); err != nil {
			return err
		}

		cost, err := Cost(r.Pricing, months, name)
		if err != nil {
			return err
		}
		waived := access.IsPrivileged(r, caller)
		if !waived && payment < cost {
			return dErrors.Newf(dErrors.CodeInsufficientPayment, "payment %d below cost %d", payment, cost)
		}
		if payment > cost {
			refund = payment - cost
		}

		r.Expiries[pageID] = r.Expiries[pageID].Add(models.TermDuration(months))
		r.Balance += payment - refund

		reservation = models.Reservation{Name: name, PageID: pageID, Expiry: r.Expiries[pageID]}

		if refund > 0 {
			if err := s.bank.Transfer(ctx, caller, refund); err != nil {
				return dErrors.Wrap(err, dErrors.CodeTransferFailed, "refund transfer rejected")
			}
		}
		return nil
	})
	if err != nil {
		s.fail("extend_name", err)
		return models.Reservation{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, name)
	}
	s.emit(ctx, events.Event{
		Type:   events.TypeNameExtended,
		Actor:  caller,
		PageID: reservation.PageID,
		Name:   name,
		Amount: payment - refund,
		Refund: refund,
		Expiry: reservation.Expiry,
	})
	if s.metrics != nil {
		s.metrics.ObserveOperation("extend_name", start)
	}
	return reservation, nil
}

// Release clears the forward mapping, reverse mapping and expiry entry for
// a name, expired or not. This is the only operation that fully tombstones
// a reservation's storage.
func (s *Service) Release(ctx context.Context, name string) error {
	ctx, span := s.tracer.Start(ctx, "names.Release")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	var pageID models.PageID
	err := s.store.Update(ctx, func(r *state.Registry) error {
		id, ok := r.NameToPage[name]
		if !ok {
			return dErrors.New(dErrors.CodeNotReserved, "name is not reserved")
		}
		page := r.Pages[id]
		if caller != page.Owner && !access.IsPrivileged(r, caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "page owner, registry owner or admin only")
		}
		delete(r.NameToPage, name)
		delete(r.PageToName, id)
		delete(r.Expiries, id)
		pageID = id
		return nil
	})
	if err != nil {
		s.fail("release_name", err)
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, name)
	}
	s.emit(ctx, events.Event{
		Type:   events.TypeNameReleased,
		Actor:  caller,
		PageID: pageID,
		Name:   name,
	})
	if s.metrics != nil {
		s.metrics.NamesReleased.Inc()
		s.metrics.ObserveOperation("release_name", start)
	}
	return nil
}

// Resolve returns the page currently bound to name, honoring the lazy
// expiry predicate. The second return is false when the name is unreserved
// or the reservation has lapsed; the lookup never mutates storage.
func (s *Service) Resolve(ctx context.Context, name string) (models.PageID, bool, error) {
	now := requestcontext.Now(ctx)
	var (
		pageID models.PageID
		active bool
	)
	err := s.store.View(ctx, func(r *state.Registry) error {
		pageID, active = r.ActiveReservation(name, now)
		return nil
	})
	return pageID, active, err
}

// NameOf returns the name bound to a page, or "" when no active binding
// exists. The reverse mapping can be stale after an overwriting
// re-reservation; callers that need the forward truth use Resolve.
func (s *Service) NameOf(ctx context.Context, pageID models.PageID) (string, error) {
	now := requestcontext.Now(ctx)
	var name string
	err := s.store.View(ctx, func(r *state.Registry) error {
		name, _ = r.ActiveName(pageID, now)
		return nil
	})
	return name, err
}

// Remaining returns the active reservation for a name, when one exists.
func (s *Service) Remaining(ctx context.Context, name string) (models.Reservation, bool, error) {
	now := requestcontext.Now(ctx)
	var (
		res models.Reservation
		ok  bool
	)
	err := s.store.View(ctx, func(r *state.Registry) error {
		pageID, active := r.ActiveReservation(name, now)
		if !active {
			return nil
		}
		res = models.Reservation{Name: name, PageID: pageID, Expiry: r.Expiries[pageID]}
		ok = true
		return nil
	})
	return res, ok, err
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
