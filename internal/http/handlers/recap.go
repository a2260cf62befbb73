package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/gateway/recap"
	"shiptrack-service/internal/logx"
	"shiptrack-service/internal/views"
)

// RecapHandler serves GET /senders/{id}/recap/summary: a prose summary
// of the sender's shipments produced by the external recap service.
type RecapHandler struct {
	sender  senderViews
	gateway recapGateway
	logger  logx.Logger
}

// NewRecapHandler wires the sender view and recap gateway together.
func NewRecapHandler(logger logx.Logger, s senderViews, g recapGateway) *RecapHandler {
	return &RecapHandler{sender: s, gateway: g, logger: logger}
}

// Summary collects the sender's shipments and forwards them to the
// recap service.
func (h *RecapHandler) Summary(w http.ResponseWriter, r *http.Request) {
	senderID := chi.URLParam(r, "id")

	list, err := h.sender.List(r.Context(), senderID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	sum, err := h.gateway.Generate(r.Context(), recap.Request{
		SenderID:  senderID,
		Shipments: flatten(list),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, sum)
}

func (h *RecapHandler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, recap.ErrDisabled):
		writeError(h.logger, w, r, http.StatusNotImplemented, "recap service not configured")
	default:
		h.logger.Warn("recap failed", logx.Err(err))
		writeError(h.logger, w, r, http.StatusBadGateway, "recap service unavailable")
	}
}

func flatten(list views.SenderList) []domain.Shipment {
	out := make([]domain.Shipment, 0, len(list.Active)+len(list.Archived))
	out = append(out, list.Active...)
	out = append(out, list.Archived...)
	return out
}
