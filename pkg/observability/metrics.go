package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the catalog
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthChecksTotal     *prometheus.CounterVec
	AuthCheckDuration   *prometheus.HistogramVec
	AuthTableBuilds     prometheus.Counter
	AuthFunctionsActive prometheus.Gauge

	// Extension metrics
	PluginsLoaded *prometheus.GaugeVec

	registry prometheus.Registerer
}

// NewMetrics creates and registers all collectors on registry
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AuthChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_auth_checks_total",
				Help: "Total number of authorization checks by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		AuthCheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_auth_check_duration_seconds",
				Help:    "Authorization check duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"action"},
		),
		AuthTableBuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_auth_table_builds_total",
				Help: "Number of times the authorization function table was built",
			},
		),
		AuthFunctionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_auth_functions",
				Help: "Number of actions in the current authorization function table",
			},
		),

		PluginsLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "catalog_plugins_loaded",
				Help: "Loaded plugins per capability interface",
			},
			[]string{"interface"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthChecksTotal,
		m.AuthCheckDuration,
		m.AuthTableBuilds,
		m.AuthFunctionsActive,
		m.PluginsLoaded,
	)

	return m
}

// ObserveCheck records one authorization check
func (m *Metrics) ObserveCheck(action, outcome string, d time.Duration) {
	m.AuthChecksTotal.WithLabelValues(action, outcome).Inc()
	m.AuthCheckDuration.WithLabelValues(action).Observe(d.Seconds())
}

// ObserveTableBuild records a rebuild of the authorization table with n actions
func (m *Metrics) ObserveTableBuild(n int) {
	m.AuthTableBuilds.Inc()
	m.AuthFunctionsActive.Set(float64(n))
}

// SetPluginCounts replaces the per-interface plugin gauges
func (m *Metrics) SetPluginCounts(counts map[string]int) {
	m.PluginsLoaded.Reset()
	for iface, n := range counts {
		m.PluginsLoaded.WithLabelValues(iface).Set(float64(n))
	}
}

// WatchCache exposes the hit and miss counters of a model cache
func (m *Metrics) WatchCache(cacheType string, hits, misses func() int64) error {
	labels := prometheus.Labels{"cache_type": cacheType}
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "catalog_cache_hits_total",
			Help:        "Total number of model cache hits",
			ConstLabels: labels,
		}, func() float64 { return float64(hits()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "catalog_cache_misses_total",
			Help:        "Total number of model cache misses",
			ConstLabels: labels,
		}, func() float64 { return float64(misses()) }),
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routeLabel uses the matched mux route template so path parameters do not explode cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(r *mux.Router, gatherer prometheus.Gatherer) {
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
