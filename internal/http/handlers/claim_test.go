package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/claim"
	"shiptrack-service/internal/docstore/memstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

type stubCoordinator struct {
	claimFn       func(ctx context.Context, sess *claim.Session, shipmentID string) (claim.Outcome, error)
	claimByCodeFn func(ctx context.Context, sess *claim.Session, code string) (claim.Outcome, error)
}

func (c *stubCoordinator) Claim(ctx context.Context, sess *claim.Session, shipmentID string) (claim.Outcome, error) {
	return c.claimFn(ctx, sess, shipmentID)
}

func (c *stubCoordinator) ClaimByCode(ctx context.Context, sess *claim.Session, code string) (claim.Outcome, error) {
	return c.claimByCodeFn(ctx, sess, code)
}

func newClaimRouter(c claimCoordinator, relays relayManager) http.Handler {
	h := NewClaimHandler(logx.Nop(), c, claim.NewRegistry(), relays)
	r := chi.NewRouter()
	r.Post("/claims", h.Claim)
	return r
}

func TestClaimHandler_SuccessStartsRelay(t *testing.T) {
	t.Parallel()

	coord := &stubCoordinator{
		claimFn: func(_ context.Context, sess *claim.Session, shipmentID string) (claim.Outcome, error) {
			require.NotNil(t, sess)
			require.Equal(t, "ship-1", shipmentID)
			return claim.Outcome{
				Result:   claim.Success,
				Shipment: &domain.Shipment{ID: shipmentID, Status: domain.StatusInTransit},
			}, nil
		},
	}
	relays := &stubRelayManager{}
	router := newClaimRouter(coord, relays)

	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{
		ShipmentID: "ship-1",
		Driver:     domain.Driver{Email: "dastagir@example.com", Fee: 250},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp claimResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(claim.Success), resp.Result)
	require.Equal(t, "ship-1", resp.Shipment.ID)

	require.Equal(t, []relayCall{{driverEmail: "dastagir@example.com", shipmentID: "ship-1"}}, relays.tracked)
}

func TestClaimHandler_ByCode(t *testing.T) {
	t.Parallel()

	coord := &stubCoordinator{
		claimByCodeFn: func(_ context.Context, _ *claim.Session, code string) (claim.Outcome, error) {
			require.Equal(t, "LOG-AB12CD", code)
			return claim.Outcome{
				Result:   claim.Success,
				Shipment: &domain.Shipment{ID: "ship-1", HumanCode: code},
			}, nil
		},
	}
	router := newClaimRouter(coord, &stubRelayManager{})

	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{
		Code:   "LOG-AB12CD",
		Driver: domain.Driver{Email: "dastagir@example.com"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestClaimHandler_LostRace(t *testing.T) {
	t.Parallel()

	coord := &stubCoordinator{
		claimFn: func(context.Context, *claim.Session, string) (claim.Outcome, error) {
			return claim.Outcome{Result: claim.AlreadyInTransit, RejectedStatus: domain.StatusInTransit}, nil
		},
	}
	relays := &stubRelayManager{}
	router := newClaimRouter(coord, relays)

	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{
		ShipmentID: "ship-1",
		Driver:     domain.Driver{Email: "dastagir@example.com"},
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp claimResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(claim.AlreadyInTransit), resp.Result)
	require.Equal(t, domain.StatusInTransit, resp.Status)
	require.Empty(t, relays.tracked)
}

func TestClaimHandler_SessionAlreadyHoldsJob(t *testing.T) {
	t.Parallel()

	coord := &stubCoordinator{
		claimFn: func(context.Context, *claim.Session, string) (claim.Outcome, error) {
			return claim.Outcome{Result: claim.AlreadyHeldLocally}, nil
		},
	}
	router := newClaimRouter(coord, &stubRelayManager{})

	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{
		ShipmentID: "ship-1",
		Driver:     domain.Driver{Email: "dastagir@example.com"},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestClaimHandler_RejectsAmbiguousTarget(t *testing.T) {
	t.Parallel()

	router := newClaimRouter(&stubCoordinator{}, &stubRelayManager{})

	// Neither target.
	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{
		Driver: domain.Driver{Email: "dastagir@example.com"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Both targets.
	rec = doJSON(t, router, http.MethodPost, "/claims", claimRequest{
		ShipmentID: "ship-1",
		Code:       "LOG-AB12CD",
		Driver:     domain.Driver{Email: "dastagir@example.com"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaimHandler_RequiresDriverEmail(t *testing.T) {
	t.Parallel()

	router := newClaimRouter(&stubCoordinator{}, &stubRelayManager{})

	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{ShipmentID: "ship-1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaimHandler_NotFound(t *testing.T) {
	t.Parallel()

	coord := &stubCoordinator{
		claimByCodeFn: func(context.Context, *claim.Session, string) (claim.Outcome, error) {
			return claim.Outcome{}, apperr.ErrNotFound
		},
	}
	router := newClaimRouter(coord, &stubRelayManager{})

	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{
		Code:   "LOG-NOSUCH",
		Driver: domain.Driver{Email: "dastagir@example.com"},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// Full claim-deliver-claim cycle over a real registry and store: the
// driver who finishes a job must be able to take the next one.
func TestClaimHandler_DriverCanClaimAgainAfterDelivery(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	svc := lifecycle.NewService(store, time.Second, logx.Nop())
	coord := claim.NewCoordinator(svc, logx.Nop(), nil)
	reg := claim.NewRegistry()

	claims := NewClaimHandler(logx.Nop(), coord, reg, &stubRelayManager{})
	shipments := NewShipmentHandler(logx.Nop(), svc, &stubRelayManager{}, reg)

	router := chi.NewRouter()
	router.Post("/claims", claims.Claim)
	router.Post("/shipments/{id}/deliver", shipments.Deliver)

	create := func() string {
		sh, err := svc.Create(context.Background(), lifecycle.CreateInput{
			SenderID: "sender-1",
			Receiver: domain.Receiver{Email: "rana@example.com"},
			Goods:    domain.Goods{Name: "parts"},
		})
		require.NoError(t, err)
		return sh.ID
	}
	driver := domain.Driver{Email: "dastagir@example.com", Fee: 250}

	first := create()
	rec := doJSON(t, router, http.MethodPost, "/claims", claimRequest{ShipmentID: first, Driver: driver})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/shipments/"+first+"/deliver", deliverRequest{
		DriverEmail: driver.Email,
		Signature:   "sig-data",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	second := create()
	rec = doJSON(t, router, http.MethodPost, "/claims", claimRequest{ShipmentID: second, Driver: driver})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp claimResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(claim.Success), resp.Result)
}
