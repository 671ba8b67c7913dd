package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentosa-erp/sentosa/internal/shared"
)

func TestActorMiddlewareReadsIdentityHeader(t *testing.T) {
	var got int64
	handler := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	req.Header.Set("X-User-ID", "42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, int64(42), got)
}

func TestActorMiddlewareIgnoresBadValues(t *testing.T) {
	for _, raw := range []string{"", "abc", "-3", "0"} {
		var got int64 = -1
		handler := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = shared.ActorFrom(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if raw != "" {
			req.Header.Set("X-User-ID", raw)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		require.Equal(t, int64(0), got, "header %q must not set an actor", raw)
	}
}
