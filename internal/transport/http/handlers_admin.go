package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"folio/internal/registry/models"
)

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewOwner models.Address `json:"new_owner"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.access.TransferOwnership(r.Context(), req.NewOwner); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (h *Handler) handleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	addr := models.Address(chi.URLParam(r, "address"))
	if err := h.access.GrantAdmin(r.Context(), addr); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "granted"})
}

func (h *Handler) handleRevokeAdmin(w http.ResponseWriter, r *http.Request) {
	addr := models.Address(chi.URLParam(r, "address"))
	if err := h.access.RevokeAdmin(r.Context(), addr); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	addr := models.Address(chi.URLParam(r, "address"))
	if err := h.access.Block(r.Context(), addr); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

func (h *Handler) handleUnblock(w http.ResponseWriter, r *http.Request) {
	addr := models.Address(chi.URLParam(r, "address"))
	if err := h.access.Unblock(r.Context(), addr); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}
