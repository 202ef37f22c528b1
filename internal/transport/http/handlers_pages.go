package httpapi

import (
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi/v5"

	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
)

type pageResponse struct {
	ID          models.PageID  `json:"id"`
	Owner       models.Address `json:"owner"`
	Target      models.Address `json:"target"`
	ContentHash string         `json:"content_hash"`
}

func toPageResponse(p models.Page) pageResponse {
	return pageResponse{
		ID:          p.ID,
		Owner:       p.Owner,
		Target:      p.Target,
		ContentHash: hex.EncodeToString(p.ContentHash),
	}
}

func (h *Handler) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target      models.Address `json:"target"`
		ContentHash string         `json:"content_hash"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	hash, err := hex.DecodeString(req.ContentHash)
	if err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "content_hash must be hex"))
		return
	}
	page, err := h.pages.Create(r.Context(), req.Target, hash)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPageResponse(page))
}

func (h *Handler) handleGetPage(w http.ResponseWriter, r *http.Request) {
	pageID := models.PageID(chi.URLParam(r, "pageID"))
	page, err := h.pages.Get(r.Context(), pageID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page))
}

func (h *Handler) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	pageID := models.PageID(chi.URLParam(r, "pageID"))
	var req struct {
		ContentHash string `json:"content_hash"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	hash, err := hex.DecodeString(req.ContentHash)
	if err != nil {
		writeError(w, h.logger, dErrors.New(dErrors.CodeBadRequest, "content_hash must be hex"))
		return
	}
	if err := h.pages.UpdateContentHash(r.Context(), pageID, hash); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleTransferPage(w http.ResponseWriter, r *http.Request) {
	pageID := models.PageID(chi.URLParam(r, "pageID"))
	var req struct {
		NewOwner models.Address `json:"new_owner"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.pages.TransferOwnership(r.Context(), pageID, req.NewOwner); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (h *Handler) handleDestroyPage(w http.ResponseWriter, r *http.Request) {
	pageID := models.PageID(chi.URLParam(r, "pageID"))
	if err := h.pages.Destroy(r.Context(), pageID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "destroyed"})
}

func (h *Handler) handleGetPageName(w http.ResponseWriter, r *http.Request) {
	pageID := models.PageID(chi.URLParam(r, "pageID"))
	name, err := h.names.NameOf(r.Context(), pageID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}
