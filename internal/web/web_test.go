package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, map[string]string{"service": "store-checklist-bot"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "store-checklist-bot", got["service"])
}

func TestRespondJSONError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bare sentinel", ErrNotFound, http.StatusNotFound},
		{"wrapped sentinel", fmt.Errorf("runtime %w", ErrServiceUnavailable), http.StatusServiceUnavailable},
		{"doubly wrapped", fmt.Errorf("outer: %w", fmt.Errorf("inner %w", ErrBadRequest)), http.StatusBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondJSONError(zerolog.Nop(), rec, tc.err)

			require.Equal(t, tc.wantStatus, rec.Code)
			var body struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, "error", body.Status)
			require.Equal(t, tc.err.Error(), body.Error)
		})
	}
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestHealthEndpoints(t *testing.T) {
	var ready atomic.Bool
	s := &Server{
		Mux:   http.NewServeMux(),
		Ready: ready.Load,
		Log:   zerolog.Nop(),
	}
	s.registerHealth()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	// Liveness holds regardless of readiness.
	require.Equal(t, http.StatusOK, get("/health").Code)
	require.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)

	ready.Store(true)
	require.Equal(t, http.StatusOK, get("/readyz").Code)
}
