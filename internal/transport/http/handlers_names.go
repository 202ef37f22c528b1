package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

type reservationResponse struct {
	Name   string        `json:"name"`
	PageID models.PageID `json:"page_id"`
	Expiry time.Time     `json:"expiry"`
}

func (h *Handler) handleReserveName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		PageID  models.PageID `json:"page_id"`
		Months  int           `json:"months"`
		Payment models.Amount `json:"payment"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	reservation, err := h.names.Reserve(r.Context(), req.PageID, name, req.Months, req.Payment)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservationResponse{
		Name:   reservation.Name,
		PageID: reservation.PageID,
		Expiry: reservation.Expiry,
	})
}

func (h *Handler) handleExtendName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Months  int           `json:"months"`
		Payment models.Amount `json:"payment"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	reservation, err := h.names.Extend(r.Context(), name, req.Months, req.Payment)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationResponse{
		Name:   reservation.Name,
		PageID: reservation.PageID,
		Expiry: reservation.Expiry,
	})
}

func (h *Handler) handleReleaseName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.names.Release(r.Context(), name); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// handleResolveName serves the lazy-expiry lookup, consulting the redis
// cache first when one is configured.
func (h *Handler) handleResolveName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := r.Context()

	if h.nameCache != nil {
		if pageID, hit := h.nameCache.Lookup(ctx, name); hit {
			writeJSON(w, http.StatusOK, map[string]any{"name": name, "page_id": pageID})
			return
		}
	}

	reservation, active, err := h.names.Remaining(ctx, name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !active {
		writeError(w, h.logger, dErrors.New(dErrors.CodeNotReserved, "name holds no active reservation"))
		return
	}
	if h.nameCache != nil {
		h.nameCache.Store(ctx, name, reservation.PageID, reservation.Expiry, requestcontext.Now(ctx))
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "page_id": reservation.PageID})
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	months, err := strconv.Atoi(r.URL.Query().Get("months"))
	if err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "months must be an integer"))
		return
	}
	name := r.URL.Query().Get("name")
	cost, err := h.names.Quote(r.Context(), months, name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months, "name": name, "cost": cost})
}

func (h *Handler) handleGetPricing(w http.ResponseWriter, r *http.Request) {
	pricing, err := h.funds.Pricing(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pricing)
}
