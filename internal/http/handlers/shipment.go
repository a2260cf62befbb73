package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

// ShipmentHandler serves HTTP endpoints for the shipment lifecycle.
type ShipmentHandler struct {
	usecase  shipmentUsecase
	relays   relayManager
	sessions sessionReleaser
	logger   logx.Logger
}

// NewShipmentHandler wires a shipmentUsecase into HTTP handlers. When a
// shipment leaves transit the relay manager is told to stop tracking
// and the driver's session slot is released for the next claim.
func NewShipmentHandler(logger logx.Logger, uc shipmentUsecase, relays relayManager, sessions sessionReleaser) *ShipmentHandler {
	return &ShipmentHandler{usecase: uc, relays: relays, sessions: sessions, logger: logger}
}

// Create handles POST /shipments.
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	sh, err := h.usecase.Create(r.Context(), lifecycle.CreateInput{
		SenderID: req.SenderID,
		Receiver: req.Receiver,
		Goods:    req.Goods,
	})
	switch {
	case err == nil:
		w.Header().Set("Location", "/shipments/"+sh.ID)
		writeJSON(h.logger, w, r, http.StatusCreated, sh)
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Get handles GET /shipments/{id}.
func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sh, err := h.usecase.Get(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, sh)
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "shipment not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// GetByCode handles GET /shipments/code/{code}.
func (h *ShipmentHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	sh, err := h.usecase.GetByCode(r.Context(), code)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, sh)
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid code")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "shipment not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Update handles PUT /shipments/{id}: sender edits of receiver contact
// details and goods. The receiver email itself is immutable.
func (h *ShipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateShipmentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.UpdateDetails(r.Context(), id, req.SenderID, req.Receiver, req.Goods)
	h.writeTransition(w, r, err)
}

// Unclaim handles POST /shipments/{id}/unclaim: the driver abandons the
// job and the shipment returns to the open pool.
func (h *ShipmentHandler) Unclaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req driverActionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.Unclaim(r.Context(), id, req.DriverEmail)
	if err == nil {
		h.relays.Stop(req.DriverEmail, id)
		h.sessions.Release(id)
	}
	h.writeTransition(w, r, err)
}

// Deliver handles POST /shipments/{id}/deliver with the signature
// artifact captured at handover.
func (h *ShipmentHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req deliverRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.Deliver(r.Context(), id, req.DriverEmail, req.Signature)
	if err == nil {
		h.relays.Stop(req.DriverEmail, id)
		h.sessions.Release(id)
	}
	h.writeTransition(w, r, err)
}

// Confirm handles POST /shipments/{id}/confirm: receiver acknowledgment
// of a delivered shipment.
func (h *ShipmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req receiverActionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.Confirm(r.Context(), id, req.ReceiverEmail)
	h.writeTransition(w, r, err)
}

// Revert handles POST /shipments/{id}/revert: the receiver walks a
// Received or Completed shipment back to Delivered.
func (h *ShipmentHandler) Revert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req receiverActionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.Revert(r.Context(), id, req.ReceiverEmail)
	h.writeTransition(w, r, err)
}

// ForceComplete handles POST /shipments/{id}/complete: the sender closes
// the shipment without waiting for delivery.
func (h *ShipmentHandler) ForceComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req senderActionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.ForceComplete(r.Context(), id, req.SenderID)
	if err == nil {
		// The sender request carries no driver identity; a running
		// relay stops itself on its next write when the transition
		// guard rejects it. The session slot frees here.
		h.sessions.Release(id)
	}
	h.writeTransition(w, r, err)
}

// MarkPaid handles POST /shipments/{id}/pay: the driver records that the
// delivery fee was settled.
func (h *ShipmentHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req driverActionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.MarkPaid(r.Context(), id, req.DriverEmail)
	h.writeTransition(w, r, err)
}

// UpdateLocation handles POST /shipments/{id}/location: a direct
// position report from the driver's device.
func (h *ShipmentHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req locationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.usecase.UpdateLocation(r.Context(), id, req.DriverEmail, req.Point)
	h.writeTransition(w, r, err)
}

func (h *ShipmentHandler) writeTransition(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, okStatus)
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "shipment not found")
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(h.logger, w, r, http.StatusConflict, "invalid transition")
	case errors.Is(err, apperr.ErrConflict):
		writeError(h.logger, w, r, http.StatusConflict, "conflicting update")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
