package access

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"folio/internal/events"
	"folio/internal/registry/models"
	"folio/internal/registry/state"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

// Service mutates the access-control state: the single transferable owner,
// the admin role set, and the blacklist.
type Service struct {
	store  state.Store
	events *events.Publisher
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store state.Store, publisher *events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: publisher,
		logger: slog.Default(),
		tracer: otel.Tracer("folio/registry/access"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransferOwnership hands the registry to a new owner. Owner only; the new
// owner must not be the zero address.
func (s *Service) TransferOwnership(ctx context.Context, newOwner models.Address) error {
	ctx, span := s.tracer.Start(ctx, "access.TransferOwnership")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := RequireOwner(r, caller); err != nil {
			return err
		}
		if newOwner.IsZero() {
			return dErrors.New(dErrors.CodeInvalidTarget, "new owner is the zero sentinel")
		}
		r.Owner = newOwner
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Type:    events.TypeOwnershipTransferred,
		Actor:   caller,
		Subject: newOwner,
	})
	return nil
}

// GrantAdmin adds an address to the admin role set. Owner only.
func (s *Service) GrantAdmin(ctx context.Context, addr models.Address) error {
	ctx, span := s.tracer.Start(ctx, "access.GrantAdmin")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := RequireOwner(r, caller); err != nil {
			return err
		}
		r.Admins[addr] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Type:    events.TypeAdminGranted,
		Actor:   caller,
		Subject: addr,
	})
	return nil
}

// RevokeAdmin removes an address from the admin role set. Owner only.
func (s *Service) RevokeAdmin(ctx context.Context, addr models.Address) error {
	ctx, span := s.tracer.Start(ctx, "access.RevokeAdmin")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := RequireOwner(r, caller); err != nil {
			return err
		}
		delete(r.Admins, addr)
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Type:    events.TypeAdminRevoked,
		Actor:   caller,
		Subject: addr,
	})
	return nil
}

// Block adds an address to the blacklist. Owner or admin.
func (s *Service) Block(ctx context.Context, addr models.Address) error {
	ctx, span := s.tracer.Start(ctx, "access.Block")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := RequirePrivileged(r, caller); err != nil {
			return err
		}
		r.Blacklist[addr] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Type:    events.TypeBlacklistAdded,
		Actor:   caller,
		Subject: addr,
	})
	return nil
}

// Unblock removes an address from the blacklist. Owner or admin.
func (s *Service) Unblock(ctx context.Context, addr models.Address) error {
	ctx, span := s.tracer.Start(ctx, "access.Unblock")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if err := RequirePrivileged(r, caller); err != nil {
			return err
		}
		delete(r.Blacklist, addr)
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.Event{
		Type:    events.TypeBlacklistRemoved,
		Actor:   caller,
		Subject: addr,
	})
	return nil
}

// Roles reports the caller-visible role facts for an address.
func (s *Service) Roles(ctx context.Context, addr models.Address) (owner, admin, blocked bool, err error) {
	err = s.store.View(ctx, func(r *state.Registry) error {
		owner = IsOwner(r, addr)
		admin = IsAdmin(r, addr)
		blocked = IsBlocked(r, addr)
		return nil
	})
	return owner, admin, blocked, err
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "emit event failed", "type", event.Type, "error", err)
	}
}
