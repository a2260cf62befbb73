package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/logx"
)

type stubLedger struct {
	senderArchived   func(ctx context.Context, id, senderID string, archived bool) error
	driverArchived   func(ctx context.Context, id, driverEmail string, archived bool) error
	driverDeleted    func(ctx context.Context, id, driverEmail string) error
	receiverArchived func(ctx context.Context, id, receiverEmail string, archived bool) error
	receiverDeleted  func(ctx context.Context, id, receiverEmail string) error
	purged           func(ctx context.Context, id string) error
	normalized       func(ctx context.Context) (int, error)
}

func (s *stubLedger) SetSenderArchived(ctx context.Context, id, senderID string, archived bool) error {
	return s.senderArchived(ctx, id, senderID, archived)
}

func (s *stubLedger) SetDriverArchived(ctx context.Context, id, driverEmail string, archived bool) error {
	return s.driverArchived(ctx, id, driverEmail, archived)
}

func (s *stubLedger) DriverDelete(ctx context.Context, id, driverEmail string) error {
	return s.driverDeleted(ctx, id, driverEmail)
}

func (s *stubLedger) SetReceiverArchived(ctx context.Context, id, receiverEmail string, archived bool) error {
	return s.receiverArchived(ctx, id, receiverEmail, archived)
}

func (s *stubLedger) ReceiverDelete(ctx context.Context, id, receiverEmail string) error {
	return s.receiverDeleted(ctx, id, receiverEmail)
}

func (s *stubLedger) Purge(ctx context.Context, id string) error {
	return s.purged(ctx, id)
}

func (s *stubLedger) NormalizeLegacyEmails(ctx context.Context) (int, error) {
	return s.normalized(ctx)
}

func newVisibilityRouter(l visibilityLedger) http.Handler {
	h := NewVisibilityHandler(logx.Nop(), l)
	r := chi.NewRouter()
	r.Route("/shipments/{id}/visibility", func(r chi.Router) {
		r.Put("/sender", h.SenderArchive)
		r.Put("/driver", h.DriverArchive)
		r.Delete("/driver", h.DriverDelete)
		r.Put("/receiver", h.ReceiverArchive)
		r.Delete("/receiver", h.ReceiverDelete)
	})
	r.Delete("/admin/shipments/{id}", h.Purge)
	r.Post("/admin/normalize-emails", h.NormalizeLegacyEmails)
	return r
}

func TestVisibilityHandler_SenderArchive(t *testing.T) {
	t.Parallel()

	ledger := &stubLedger{
		senderArchived: func(_ context.Context, id, senderID string, archived bool) error {
			require.Equal(t, "ship-1", id)
			require.Equal(t, "sender-1", senderID)
			require.True(t, archived)
			return nil
		},
	}
	router := newVisibilityRouter(ledger)

	rec := doJSON(t, router, http.MethodPut, "/shipments/ship-1/visibility/sender", archiveRequest{
		Actor:    "sender-1",
		Archived: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVisibilityHandler_WrongActorConflicts(t *testing.T) {
	t.Parallel()

	ledger := &stubLedger{
		receiverArchived: func(context.Context, string, string, bool) error {
			return apperr.ErrConflict
		},
	}
	router := newVisibilityRouter(ledger)

	rec := doJSON(t, router, http.MethodPut, "/shipments/ship-1/visibility/receiver", archiveRequest{
		Actor:    "intruder@example.com",
		Archived: true,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestVisibilityHandler_DriverDelete(t *testing.T) {
	t.Parallel()

	ledger := &stubLedger{
		driverDeleted: func(_ context.Context, id, driverEmail string) error {
			require.Equal(t, "dastagir@example.com", driverEmail)
			return nil
		},
	}
	router := newVisibilityRouter(ledger)

	rec := doJSON(t, router, http.MethodDelete, "/shipments/ship-1/visibility/driver", deleteRequest{
		Actor: "dastagir@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVisibilityHandler_Purge(t *testing.T) {
	t.Parallel()

	ledger := &stubLedger{
		purged: func(_ context.Context, id string) error {
			require.Equal(t, "ship-1", id)
			return nil
		},
	}
	router := newVisibilityRouter(ledger)

	rec := doJSON(t, router, http.MethodDelete, "/admin/shipments/ship-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVisibilityHandler_Purge_NotFound(t *testing.T) {
	t.Parallel()

	ledger := &stubLedger{
		purged: func(context.Context, string) error { return apperr.ErrNotFound },
	}
	router := newVisibilityRouter(ledger)

	rec := doJSON(t, router, http.MethodDelete, "/admin/shipments/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVisibilityHandler_NormalizeLegacyEmails(t *testing.T) {
	t.Parallel()

	ledger := &stubLedger{
		normalized: func(context.Context) (int, error) { return 3, nil },
	}
	router := newVisibilityRouter(ledger)

	rec := doJSON(t, router, http.MethodPost, "/admin/normalize-emails", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp normalizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Migrated)
}
