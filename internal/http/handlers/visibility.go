package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/logx"
)

// VisibilityHandler serves the per-role archive and soft-delete
// endpoints. Every flag is scoped to one role; the shipment itself is
// untouched.
type VisibilityHandler struct {
	ledger visibilityLedger
	logger logx.Logger
}

// NewVisibilityHandler wires a visibilityLedger into HTTP handlers.
func NewVisibilityHandler(logger logx.Logger, l visibilityLedger) *VisibilityHandler {
	return &VisibilityHandler{ledger: l, logger: logger}
}

// SenderArchive handles PUT /shipments/{id}/visibility/sender.
func (h *VisibilityHandler) SenderArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req archiveRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	h.write(w, r, h.ledger.SetSenderArchived(r.Context(), id, req.Actor, req.Archived))
}

// DriverArchive handles PUT /shipments/{id}/visibility/driver.
func (h *VisibilityHandler) DriverArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req archiveRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	h.write(w, r, h.ledger.SetDriverArchived(r.Context(), id, req.Actor, req.Archived))
}

// DriverDelete handles DELETE /shipments/{id}/visibility/driver. The
// shipment disappears from this driver's views for good.
func (h *VisibilityHandler) DriverDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req deleteRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	h.write(w, r, h.ledger.DriverDelete(r.Context(), id, req.Actor))
}

// ReceiverArchive handles PUT /shipments/{id}/visibility/receiver.
func (h *VisibilityHandler) ReceiverArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req archiveRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	h.write(w, r, h.ledger.SetReceiverArchived(r.Context(), id, req.Actor, req.Archived))
}

// ReceiverDelete handles DELETE /shipments/{id}/visibility/receiver.
func (h *VisibilityHandler) ReceiverDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req deleteRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	h.write(w, r, h.ledger.ReceiverDelete(r.Context(), id, req.Actor))
}

// Purge handles DELETE /admin/shipments/{id}: physical removal of the
// document for every role at once.
func (h *VisibilityHandler) Purge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.write(w, r, h.ledger.Purge(r.Context(), id))
}

// NormalizeLegacyEmails handles POST /admin/normalize-emails: one-shot
// migration of receiver emails carrying the historical archive prefix.
func (h *VisibilityHandler) NormalizeLegacyEmails(w http.ResponseWriter, r *http.Request) {
	n, err := h.ledger.NormalizeLegacyEmails(r.Context())
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, normalizeResponse{Migrated: n})
}

func (h *VisibilityHandler) write(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, okStatus)
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "shipment not found")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "not visible to this actor")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
