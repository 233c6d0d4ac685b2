package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/http/handlers"
	testlog "service-dispatch/internal/testutil"
)

func testLogger() *testlog.Recorder { return testlog.New() }

func asUser(req *http.Request, userID uuid.UUID, roles ...domain.Role) *http.Request {
	ctx := auth.WithPrincipal(req.Context(), auth.Principal{UserID: userID, Roles: roles})
	return req.WithContext(ctx)
}

func withParams(req *http.Request, kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestHandlers_Ping(t *testing.T) {
	t.Parallel()

	h := handlers.New(nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()

	h.Ping(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}

func TestHandlers_HealthcheckHead(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	handlers.New(nil).HealthcheckHead(rr, httptest.NewRequest(http.MethodHead, "/healthcheck", nil))

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestHandlers_NotFound(t *testing.T) {
	t.Parallel()

	rec := testLogger()
	rr := httptest.NewRecorder()
	handlers.New(rec.Logger()).NotFound(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "route not found", decodeError(t, rr).Error)
	require.True(t, rec.Has("info", "http error"))
}
