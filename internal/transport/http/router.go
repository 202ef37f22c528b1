// Package httpapi is the thin HTTP layer. Handlers delegate to the registry
// services without embedding business logic so transport concerns stay
// isolated.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folio/internal/platform/middleware"
	"folio/internal/registry/access"
	"folio/internal/registry/cache"
	"folio/internal/registry/funds"
	"folio/internal/registry/names"
	"folio/internal/registry/pages"
)

// Handler bundles the registry services behind the public endpoints.
type Handler struct {
	logger *slog.Logger

	pages  *pages.Service
	names  *names.Service
	funds  *funds.Service
	access *access.Service

	nameCache *cache.NameCache
	validator middleware.CallerValidator
	health    func() error
}

// Option configures a Handler.
type Option func(*Handler)

// WithNameCache enables the redis read-through cache on the name lookup path.
func WithNameCache(c *cache.NameCache) Option {
	return func(h *Handler) { h.nameCache = c }
}

// WithHealthCheck adds a dependency probe to /healthz.
func WithHealthCheck(probe func() error) Option {
	return func(h *Handler) { h.health = probe }
}

// NewHandler builds the HTTP layer over the registry services.
func NewHandler(
	logger *slog.Logger,
	pagesSvc *pages.Service,
	namesSvc *names.Service,
	fundsSvc *funds.Service,
	accessSvc *access.Service,
	validator middleware.CallerValidator,
	opts ...Option,
) *Handler {
	h := &Handler{
		logger:    logger,
		pages:     pagesSvc,
		names:     namesSvc,
		funds:     fundsSvc,
		access:    accessSvc,
		validator: validator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires all public endpoints. Reads are open; every mutating route
// runs behind the JWT caller middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Point lookups; no enumeration endpoints by design.
	r.Get("/pages/{pageID}", h.handleGetPage)
	r.Get("/pages/{pageID}/name", h.handleGetPageName)
	r.Get("/names/{name}", h.handleResolveName)
	r.Get("/pricing/quote", h.handleQuote)
	r.Get("/pricing", h.handleGetPricing)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))

		r.Post("/pages", h.handleCreatePage)
		r.Patch("/pages/{pageID}/content", h.handleUpdateContent)
		r.Post("/pages/{pageID}/transfer", h.handleTransferPage)
		r.Delete("/pages/{pageID}", h.handleDestroyPage)

		r.Post("/names/{name}/reservations", h.handleReserveName)
		r.Post("/names/{name}/extensions", h.handleExtendName)
		r.Delete("/names/{name}", h.handleReleaseName)

		r.Post("/funds/donations", h.handleDonate)
		r.Post("/funds/receive", h.handleReceive)
		r.Post("/funds/withdrawals", h.handleWithdraw)
		r.Put("/funds/payout-address", h.handleUpdatePayoutAddress)
		r.Put("/pricing", h.handleUpdatePricing)

		r.Post("/admin/owner", h.handleTransferOwnership)
		r.Put("/admin/admins/{address}", h.handleGrantAdmin)
		r.Delete("/admin/admins/{address}", h.handleRevokeAdmin)
		r.Put("/admin/blacklist/{address}", h.handleBlock)
		r.Delete("/admin/blacklist/{address}", h.handleUnblock)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
