// Package metrics exposes Prometheus collectors for ticket operations and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waitline"

// Recorder owns a private registry. It implements ticket.Observer.
type Recorder struct {
	registry *prometheus.Registry

	joins       *prometheus.CounterVec
	serves      *prometheus.CounterVec
	opDuration  *prometheus.HistogramVec
	requests    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec
}

// New creates a Recorder with process and Go runtime collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_total",
			Help:      "Join attempts by outcome.",
		}, []string{"outcome"}),
		serves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serves_total",
			Help:      "Serve attempts by outcome.",
		}, []string{"outcome"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ticket_operation_duration_seconds",
			Help:      "Latency of ticket mutations, including time spent waiting for the queue lock.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.joins, r.serves, r.opDuration, r.requests, r.reqDuration,
	)
	return r
}

// ObserveJoin records one join attempt.
func (r *Recorder) ObserveJoin(outcome string, elapsed time.Duration) {
	r.joins.WithLabelValues(outcome).Inc()
	r.opDuration.WithLabelValues("join").Observe(elapsed.Seconds())
}

// ObserveServe records one serve attempt.
func (r *Recorder) ObserveServe(outcome string, elapsed time.Duration) {
	r.serves.WithLabelValues(outcome).Inc()
	r.opDuration.WithLabelValues("serve").Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware counts requests by chi route pattern, so path parameters do not
// explode label cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.requests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.reqDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
