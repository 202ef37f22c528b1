// Package pages implements the page registry: opaque records binding an
// owner, a target address, and a content hash under a creator-derived
// identifier.
package pages

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"folio/internal/events"
	"folio/internal/registry/access"
	registrymetrics "folio/internal/registry/metrics"
	"folio/internal/registry/models"
	"folio/internal/registry/state"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

// NameCache is notified when a destroy tears down a name binding, so a
// read-through cache never serves the dead entry. Satisfied by
// cache.NameCache.
type NameCache interface {
	Invalidate(ctx context.Context, name string)
}

// Service owns the page lifecycle. All mutations run through the state
// store's atomic Update; a failing precondition leaves no trace.
type Service struct {
	registryID string
	store      state.Store
	events     *events.Publisher
	metrics    *registrymetrics.Metrics
	cache      NameCache
	logger     *slog.Logger
	tracer     trace.Tracer
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

// New creates the page service. registryID salts page identifier derivation
// so distinct deployments never collide.
func New(registryID string, store state.Store, publisher *events.Publisher, opts ...Option) *Service {
	s := &Service{
		registryID: registryID,
		store:      store,
		events:     publisher,
		logger:     slog.Default(),
		tracer:     otel.Tracer("folio/registry/pages"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new page owned by the caller and returns it. The
// identifier is derived from (registry ID, caller, target, next sequence
// number for the caller); the sequence counter then advances and is never
// reused, so a later destroy can never be undone by re-creation.
func (s *Service) Create(ctx context.Context, target models.Address, contentHash []byte) (models.Page, error) {
	ctx, span := s.tracer.Start(ctx, "pages.Create")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	var page models.Page
	err := s.store.Update(ctx, func(r *state.Registry) error {
		if target.IsZero() {
			return dErrors.New(dErrors.CodeInvalidTarget, "target address is the zero sentinel")
		}
		if err := access.RequireNotBlocked(r, caller); err != nil {
			return err
		}
		seq := r.Sequences[caller]
		page = models.Page{
			ID:          models.DerivePageID(s.registryID, caller, target, seq),
			Owner:       caller,
			Target:      target,
			ContentHash: contentHash,
		}
		r.Pages[page.ID] = page
		r.Sequences[caller] = seq + 1
		return nil
	})
	if err != nil {
		s.fail("create_page", err)
		return models.Page{}, err
	}

	s.emit(ctx, events.Event{
		Type:   events.TypePageCreated,
		Actor:  caller,
		PageID: page.ID,
		Target: target,
	})
	if s.metrics != nil {
		s.metrics.PagesCreated.Inc()
		s.metrics.ObserveOperation("create_page", start)
	}
	return page, nil
}

// Get returns the page record for an identifier.
func (s *Service) Get(ctx context.Context, id models.PageID) (models.Page, error) {
	var page models.Page
	err := s.store.View(ctx, func(r *state.Registry) error {
		p, ok := r.Pages[id]
		if !ok || !p.Exists() {
			return dErrors.New(dErrors.CodeNotFound, "page does not exist")
		}
		page = p
		return nil
	})
	return page, err
}

// Exists reports whether a page identifier refers to a live page.
func (s *Service) Exists(ctx context.Context, id models.PageID) (bool, error) {
	var exists bool
	err := s.store.View(ctx, func(r *state.Registry) error {
		p, ok := r.Pages[id]
		exists = ok && p.Exists()
		return nil
	})
	return exists, err
}

// UpdateContentHash replaces a page's content hash. Page-owner only.
func (s *Service) UpdateContentHash(ctx context.Context, id models.PageID, newHash []byte) error {
	ctx, span := s.tracer.Start(ctx, "pages.UpdateContentHash")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		page, ok := r.Pages[id]
		if !ok || !page.Exists() {
			return dErrors.New(dErrors.CodeNotFound, "page does not exist")
		}
		if caller != page.Owner {
			return dErrors.New(dErrors.CodeUnauthorized, "page owner only")
		}
		if err := access.RequireNotBlocked(r, caller); err != nil {
			return err
		}
		page.ContentHash = newHash
		r.Pages[id] = page
		return nil
	})
	if err != nil {
		s.fail("update_content_hash", err)
		return err
	}

	s.emit(ctx, events.Event{
		Type:   events.TypePageContentUpdated,
		Actor:  caller,
		PageID: id,
	})
	if s.metrics != nil {
		s.metrics.ObserveOperation("update_content_hash", start)
	}
	return nil
}

// TransferOwnership hands the page to a new owner. Page-owner only. Unlike
// the other page mutations this deliberately applies no blacklist check.
func (s *Service) TransferOwnership(ctx context.Context, id models.PageID, newOwner models.Address) error {
	ctx, span := s.tracer.Start(ctx, "pages.TransferOwnership")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	err := s.store.Update(ctx, func(r *state.Registry) error {
		page, ok := r.Pages[id]
		if !ok || !page.Exists() {
			return dErrors.New(dErrors.CodeNotFound, "page does not exist")
		}
		if caller != page.Owner {
			return dErrors.New(dErrors.CodeUnauthorized, "page owner only")
		}
		page.Owner = newOwner
		r.Pages[id] = page
		return nil
	})
	if err != nil {
		s.fail("transfer_page", err)
		return err
	}

	s.emit(ctx, events.Event{
		Type:    events.TypePageOwnershipTransfered,
		Actor:   caller,
		PageID:  id,
		Subject: newOwner,
	})
	if s.metrics != nil {
		s.metrics.ObserveOperation("transfer_page", start)
	}
	return nil
}

// Destroy clears a page. Page-owner only. An active name binding is torn
// down with it, but the expiry entry stays behind: releaseName is the only
// operation that fully tombstones a reservation. An expired binding is left
// untouched, so the destroyed page's reverse name pointer survives as a
// stale entry until the name is released or re-reserved.
func (s *Service) Destroy(ctx context.Context, id models.PageID) error {
	ctx, span := s.tracer.Start(ctx, "pages.Destroy")
	defer span.End()
	start := time.Now()

	caller := requestcontext.Caller(ctx)
	now := requestcontext.Now(ctx)
	var clearedName string
	err := s.store.Update(ctx, func(r *state.Registry) error {
		page, ok := r.Pages[id]
		if !ok || !page.Exists() {
			return dErrors.New(dErrors.CodeNotFound, "page does not exist")
		}
		if caller != page.Owner {
			return dErrors.New(dErrors.CodeUnauthorized, "page owner only")
		}
		if name, active := r.ActiveName(id, now); active {
			if r.NameToPage[name] == id {
				delete(r.NameToPage, name)
			}
			delete(r.PageToName, id)
			clearedName = name
		}
		delete(r.Pages, id)
		return nil
	})
	if err != nil {
		s.fail("destroy_page", err)
		return err
	}
	if clearedName != "" && s.cache != nil {
		s.cache.Invalidate(ctx, clearedName)
	}

	s.emit(ctx, events.Event{
		Type:   events.TypePageDestroyed,
		Actor:  caller,
		PageID: id,
	})
	if s.metrics != nil {
		s.metrics.PagesDestroyed.Inc()
		s.metrics.ObserveOperation("destroy_page", start)
	}
	return nil
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
