package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveOutcomes(t *testing.T) {
	r := New()
	r.ObserveJoin("ok", time.Millisecond)
	r.ObserveJoin("ok", time.Millisecond)
	r.ObserveJoin("capacity_exceeded", time.Millisecond)
	r.ObserveServe("not_in_queue", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(r.joins.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.joins.WithLabelValues("capacity_exceeded")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.serves.WithLabelValues("not_in_queue")))
}

func TestRecorder_MiddlewareUsesRoutePattern(t *testing.T) {
	r := New()
	router := chi.NewRouter()
	router.Use(r.Middleware)
	router.Get("/queues/{queueID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router.Handle("/metrics", r.Handler())

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queues/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	require.Equal(t, 3.0, testutil.ToFloat64(r.requests.WithLabelValues("GET", "/queues/{queueID}", "418")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "waitline_http_requests_total"))
}
