package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hms-dta/agencyauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	cfg := httpx.DefaultCORSConfig([]string{"https://console.example.com"})
	wrapped := httpx.CORSMiddleware(cfg)(handler)

	t.Run("allowed origin gets CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/domains", nil)
		req.Header.Set("Origin", "https://console.example.com")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "https://console.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/domains", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answered without hitting handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/oauth2/token", nil)
		req.Header.Set("Origin", "https://console.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		open := httpx.CORSMiddleware(httpx.DefaultCORSConfig([]string{"*"}))(handler)

		req := httptest.NewRequest(http.MethodGet, "/domains", nil)
		req.Header.Set("Origin", "https://anything.example.net")
		rec := httptest.NewRecorder()

		open.ServeHTTP(rec, req)
		require.Equal(t, "https://anything.example.net", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
