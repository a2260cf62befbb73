package pprofserver

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func profileRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "http://example/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestGuard_LoopbackNeedsNoCredentials(t *testing.T) {
	t.Parallel()

	marker := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := guard(marker, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, profileRequest("127.0.0.1:12345"))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGuard_RemoteWithoutConfiguredCredentialsIsShut(t *testing.T) {
	t.Parallel()

	h := guard(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("must not reach the profiler")
	}), Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, profileRequest("8.8.8.8:54444"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestGuard_RemoteCredentials(t *testing.T) {
	t.Parallel()

	marker := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := guard(marker, Config{User: "ops", Pass: "s3cret"})

	req := profileRequest("8.8.8.8:54444")
	req.Header.Set("Authorization", basicAuth("ops", "wrong"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = profileRequest("8.8.8.8:54444")
	req.Header.Set("Authorization", basicAuth("ops", "s3cret"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFromLoopback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:123", true},
		{"127.0.0.1", true},
		{"[::1]:123", true},
		{"8.8.8.8:1", false},
		{"not-an-ip:1", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, fromLoopback(tc.addr), "addr %q", tc.addr)
	}
}

func TestConstantEq(t *testing.T) {
	t.Parallel()

	require.True(t, constantEq("s3cret", "s3cret"))
	require.False(t, constantEq("s3cret", "s3cres"))
	require.False(t, constantEq("short", "longer"))
}
