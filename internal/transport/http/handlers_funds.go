package httpapi

import (
	"net/http"

	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
)

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payment models.Amount `json:"payment"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.funds.Donate(r.Context(), req.Payment); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// handleReceive accepts a payment that matched no operation. Accepted and
// announced rather than rejected.
func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payment models.Amount `json:"payment"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.funds.Receive(r.Context(), req.Payment); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount models.Amount `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.funds.Withdraw(r.Context(), req.Amount); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (h *Handler) handleUpdatePayoutAddress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address models.Address `json:"address"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.funds.UpdatePayoutAddress(r.Context(), req.Address); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleUpdatePricing applies exactly one pricing knob per request, mirroring
// the four owner-only configuration operations.
func (h *Handler) handleUpdatePricing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonthlyCost         *models.Amount `json:"monthly_cost"`
		Discount            *uint64        `json:"twelve_month_discount"`
		ShortNameThreshold  *int           `json:"short_name_threshold"`
		ShortNameMultiplier *uint64        `json:"short_name_multiplier"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	var err error
	switch {
	case req.MonthlyCost != nil:
		err = h.funds.UpdateMonthlyCost(ctx, *req.MonthlyCost)
	case req.Discount != nil:
		err = h.funds.UpdateDiscount(ctx, *req.Discount)
	case req.ShortNameThreshold != nil:
		err = h.funds.UpdateShortNameThreshold(ctx, *req.ShortNameThreshold)
	case req.ShortNameMultiplier != nil:
		err = h.funds.UpdateShortNameMultiplier(ctx, *req.ShortNameMultiplier)
	default:
		err = dErrors.New(dErrors.CodeBadRequest, "no pricing field provided")
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
