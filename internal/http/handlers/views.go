package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/logx"
)

// ViewsHandler serves the per-role read models.
type ViewsHandler struct {
	sender   senderViews
	driver   driverViews
	receiver receiverViews
	logger   logx.Logger
}

// NewViewsHandler wires the role views into HTTP handlers.
func NewViewsHandler(logger logx.Logger, s senderViews, d driverViews, r receiverViews) *ViewsHandler {
	return &ViewsHandler{sender: s, driver: d, receiver: r, logger: logger}
}

// SenderList handles GET /senders/{id}/shipments.
func (h *ViewsHandler) SenderList(w http.ResponseWriter, r *http.Request) {
	list, err := h.sender.List(r.Context(), chi.URLParam(r, "id"))
	h.writeList(w, r, list, err)
}

// SenderMonthly handles GET /senders/{id}/recap/monthly.
func (h *ViewsHandler) SenderMonthly(w http.ResponseWriter, r *http.Request) {
	recap, err := h.sender.MonthlyRecap(r.Context(), chi.URLParam(r, "id"))
	h.writeList(w, r, recap, err)
}

// DriverPool handles GET /drivers/pool: unclaimed Pending shipments.
func (h *ViewsHandler) DriverPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.driver.Pool(r.Context())
	h.writeList(w, r, pool, err)
}

// DriverBoard handles GET /drivers/{email}/shipments.
func (h *ViewsHandler) DriverBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.driver.Board(r.Context(), chi.URLParam(r, "email"))
	h.writeList(w, r, board, err)
}

// DriverRevenue handles GET /drivers/{email}/recap/revenue.
func (h *ViewsHandler) DriverRevenue(w http.ResponseWriter, r *http.Request) {
	recap, err := h.driver.RevenueRecap(r.Context(), chi.URLParam(r, "email"))
	h.writeList(w, r, recap, err)
}

// ReceiverList handles GET /receivers/{email}/shipments.
func (h *ViewsHandler) ReceiverList(w http.ResponseWriter, r *http.Request) {
	list, err := h.receiver.List(r.Context(), chi.URLParam(r, "email"))
	h.writeList(w, r, list, err)
}

func (h *ViewsHandler) writeList(w http.ResponseWriter, r *http.Request, v any, err error) {
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, v)
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
