package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	httpRequestsTotal   = "http_requests_total"
	httpRequestDuration = "http_request_duration_seconds"
	httpInflight        = "http_requests_in_flight"

	// unmatchedRoute labels requests chi could not route so unknown paths do
	// not create new series.
	unmatchedRoute = "unmatched"
)

// Plan commits run a transaction and a snapshot write, so the upper buckets
// stretch further than the prometheus defaults.
var latencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Middleware records requests, latency and in-flight requests per route
// pattern. Project and wave ids never end up in a label.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func NewMiddleware(service string) *Middleware {
	constLabels := prometheus.Labels{"service": service}
	return &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem:   wavePlanner,
			Name:        httpRequestsTotal,
			Help:        "number of HTTP requests by status code, method and route",
			ConstLabels: constLabels,
		}, []string{"code", "method", "route"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem:   wavePlanner,
			Name:        httpRequestDuration,
			Help:        "time spent serving HTTP requests by status code, method and route",
			ConstLabels: constLabels,
			Buckets:     latencyBuckets,
		}, []string{"code", "method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Subsystem:   wavePlanner,
			Name:        httpInflight,
			Help:        "number of HTTP requests being served",
			ConstLabels: constLabels,
		}),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.inflight.Inc()
		defer m.inflight.Dec()

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := strconv.Itoa(ww.Status())
		m.requests.WithLabelValues(code, r.Method, route).Inc()
		m.latency.WithLabelValues(code, r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// MustRegister registers the collectors with reg, or with the default
// registerer when reg is nil.
func (m *Middleware) MustRegister(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requests, m.latency, m.inflight)
}
