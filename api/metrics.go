package api

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

// Metrics holds the Prometheus collectors for the journey server. Each
// instance owns its registry so tests can build routers side by side.
type Metrics struct {
	Registry *prometheus.Registry

	Computations    *prometheus.CounterVec
	ComputeDuration prometheus.Histogram
	Unlocks         *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	SchedulerSweeps *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		Computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journey_computations_total",
				Help: "Journey computations by result (computed, unconfigured, error)",
			},
			[]string{"result"},
		),

		ComputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "journey_compute_duration_seconds",
				Help:    "Time to load inputs and compute a journey",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),

		Unlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journey_achievements_unlocked_total",
				Help: "First-time achievement unlocks",
			},
			[]string{"achievement"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journey_http_requests_total",
				Help: "HTTP requests by method, route pattern and status",
			},
			[]string{"method", "route", "status"},
		),

		SchedulerSweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journey_scheduler_sweeps_total",
				Help: "Scheduled unlock sweeps by result",
			},
			[]string{"result"},
		),
	}

	m.Registry.MustRegister(
		m.Computations,
		m.ComputeDuration,
		m.Unlocks,
		m.HTTPRequests,
		m.SchedulerSweeps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveCompute records one computation.
func (m *Metrics) ObserveCompute(result string, started time.Time) {
	m.Computations.WithLabelValues(result).Inc()
	m.ComputeDuration.Observe(time.Since(started).Seconds())
}

// Middleware counts requests by chi route pattern, not raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
