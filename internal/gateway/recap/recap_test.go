package recap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"shiptrack-service/internal/domain"
)

func TestHTTPGateway_Generate(t *testing.T) {
	t.Parallel()

	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/recap", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(Summary{Text: "two shipments in transit"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.Client(), srv.URL)
	sum, err := g.Generate(context.Background(), Request{
		SenderID:  "sender-1",
		Shipments: []domain.Shipment{{ID: "ship-1"}},
	})
	require.NoError(t, err)
	require.Equal(t, "two shipments in transit", sum.Text)
	require.Equal(t, "sender-1", gotReq.SenderID)
	require.Len(t, gotReq.Shipments, 1)
}

func TestHTTPGateway_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.Client(), srv.URL)
	_, err := g.Generate(context.Background(), Request{})
	var se *statusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusInternalServerError, se.code)
}

func TestNewHTTPGateway_EmptyBaseURL(t *testing.T) {
	t.Parallel()

	require.Nil(t, NewHTTPGateway(nil, ""))
}
