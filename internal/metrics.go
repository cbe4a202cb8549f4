package internal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tool-rack-lookup/internal/models"
	"tool-rack-lookup/internal/store"
)

// Metrics holds the HTTP and store collectors on a private registry.
type Metrics struct {
	reqTotal     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	registry     *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_queries_total",
			Help: "Total store lookups by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	queryLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Store lookup latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	registry.MustRegister(reqTotal, reqLatency, queryTotal, queryLatency)

	return &Metrics{
		reqTotal:     reqTotal,
		reqLatency:   reqLatency,
		queryTotal:   queryTotal,
		queryLatency: queryLatency,
		registry:     registry,
	}
}

// Middleware returns a chi middleware that records request count and latency
// labelled by route pattern.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if chiCtx := chi.RouteContext(r.Context()); chiCtx != nil && len(chiCtx.RoutePatterns) > 0 {
				path = chiCtx.RoutePatterns[len(chiCtx.RoutePatterns)-1]
			}

			status := http.StatusText(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentStore wraps next so every lookup is counted and timed.
func (m *Metrics) InstrumentStore(next store.Store) store.Store {
	return &instrumentedStore{next: next, m: m}
}

type instrumentedStore struct {
	next store.Store
	m    *Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, store.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	s.m.queryTotal.WithLabelValues(op, outcome).Inc()
	s.m.queryLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	start := time.Now()
	customers, err := s.next.ListCustomers(ctx)
	s.observe("list_customers", start, err)
	return customers, err
}

func (s *instrumentedStore) ListToolsByCustomer(ctx context.Context, customerID int64) ([]models.Tool, error) {
	start := time.Now()
	tools, err := s.next.ListToolsByCustomer(ctx, customerID)
	s.observe("list_tools", start, err)
	return tools, err
}

func (s *instrumentedStore) GetTool(ctx context.Context, id int64) (*models.Tool, error) {
	start := time.Now()
	tool, err := s.next.GetTool(ctx, id)
	s.observe("get_tool", start, err)
	return tool, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// statusRecorder captures the response status for metrics and request logs.
type statusRecorder struct {
	http.ResponseWriter
	code  int
	bytes int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}
