package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/logx"
	testlog "service-dispatch/internal/testutil"
)

func TestObservability_LabelsByRouteTemplate(t *testing.T) {
	t.Parallel()
	pattern := "/probe/" + strings.ReplaceAll(t.Name(), "/", "_") + "/{courierId}"
	r := chi.NewRouter()
	r.Use(Observability(logx.Nop()))
	r.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, pattern, "202")
	before := testutil.ToFloat64(counter)
	beforeObs := observations(t, http.MethodGet, pattern, "202")

	for _, id := range []string{"c-1", "c-2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, strings.Replace(pattern, "{courierId}", id, 1), nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	require.Equal(t, before+2, testutil.ToFloat64(counter))
	require.Equal(t, beforeObs+2, observations(t, http.MethodGet, pattern, "202"))
}

func TestObservability_LogsAccessLine(t *testing.T) {
	t.Parallel()
	rec := testlog.New()
	r := chi.NewRouter()
	r.Use(chimw.RequestID, Observability(rec.Logger()))
	r.Post("/deliveries/{deliveryId}/cancel", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/deliveries/abc/cancel", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	e, ok := rec.Find("info", "http request")
	require.True(t, ok)
	path, _ := e.Field("path")
	require.Equal(t, "/deliveries/{deliveryId}/cancel", path)
	status, _ := e.Field("status")
	require.Equal(t, http.StatusConflict, status)
	reqID, _ := e.Field("req_id")
	require.NotEmpty(t, reqID)
}

func observations(t *testing.T, labels ...string) uint64 {
	t.Helper()
	obs, err := httpRequestDuration.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, obs.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}
