package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/claim"
	"shiptrack-service/internal/logx"
)

// ClaimHandler serves the driver claim endpoints. Each driver gets a
// process-lifetime session from the registry so the one-active-job rule
// holds across requests; a won claim starts the location relay.
type ClaimHandler struct {
	coordinator claimCoordinator
	sessions    *claim.Registry
	relays      relayManager
	logger      logx.Logger
}

// NewClaimHandler wires the claim coordinator, session registry and
// relay manager into HTTP handlers.
func NewClaimHandler(logger logx.Logger, c claimCoordinator, sessions *claim.Registry, relays relayManager) *ClaimHandler {
	return &ClaimHandler{coordinator: c, sessions: sessions, relays: relays, logger: logger}
}

// Claim handles POST /claims. The request carries either a shipment id
// or a human-readable code.
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if strings.TrimSpace(req.Driver.Email) == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "driver email required")
		return
	}
	if (req.ShipmentID == "") == (req.Code == "") {
		writeError(h.logger, w, r, http.StatusBadRequest, "exactly one of shipmentId or code required")
		return
	}

	sess := h.sessions.Session(req.Driver)

	var (
		out claim.Outcome
		err error
	)
	if req.ShipmentID != "" {
		out, err = h.coordinator.Claim(r.Context(), sess, req.ShipmentID)
	} else {
		out, err = h.coordinator.ClaimByCode(r.Context(), sess, req.Code)
	}

	switch {
	case err == nil:
		h.writeOutcome(w, r, req.Driver.Email, out)
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "shipment not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *ClaimHandler) writeOutcome(w http.ResponseWriter, r *http.Request, driverEmail string, out claim.Outcome) {
	switch out.Result {
	case claim.Success:
		// The relay outlives the request; it is scoped to the process,
		// not to r.Context().
		if err := h.relays.Track(context.WithoutCancel(r.Context()), driverEmail, out.Shipment.ID); err != nil {
			h.logger.Warn("relay start failed",
				logx.String("event", "relay_start_failed"),
				logx.String("shipment_id", out.Shipment.ID),
				logx.Err(err),
			)
		}
		writeJSON(h.logger, w, r, http.StatusOK, claimResponse{
			Result:   string(out.Result),
			Shipment: out.Shipment,
		})
	case claim.AlreadyInTransit:
		writeJSON(h.logger, w, r, http.StatusConflict, claimResponse{
			Result: string(out.Result),
			Status: out.RejectedStatus,
		})
	case claim.AlreadyHeldLocally:
		writeJSON(h.logger, w, r, http.StatusConflict, claimResponse{
			Result: string(out.Result),
		})
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
