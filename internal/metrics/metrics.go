package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sources supplies the live gauges read at scrape time.
type Sources struct {
	ActiveTestSessions     func() int
	ActiveLearningSessions func() int
	SessionsStarted        func() int64
	BankItems              func() int
}

// Metrics owns the process registry and the HTTP instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New(src Sources) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vocabcat_http_requests_total",
			Help: "HTTP requests served, by method and status.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vocabcat_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vocabcat_active_test_sessions",
			Help: "Live adaptive test sessions.",
		}, func() float64 { return float64(src.ActiveTestSessions()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vocabcat_active_learning_sessions",
			Help: "Live goal learning sessions.",
		}, func() float64 { return float64(src.ActiveLearningSessions()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "vocabcat_sessions_started_total",
			Help: "Adaptive test sessions started since boot.",
		}, func() float64 { return float64(src.SessionsStarted()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vocabcat_bank_items",
			Help: "Items in the published bank.",
		}, func() float64 { return float64(src.BankItems()) }),
	)

	return m
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with count and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
