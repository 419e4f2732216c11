package httpapi

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"forumd/internal/signals"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forumd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forumd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "forumd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"method"},
	)

	lookupMissTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forumd",
			Subsystem: "http",
			Name:      "lookup_miss_total",
			Help:      "Requests for articles, tags or badges that do not exist (404)",
		},
		[]string{"page"},
	)

	signalListenersDesc = prometheus.NewDesc(
		"forumd_signals_listeners",
		"Listeners currently connected per signal channel",
		[]string{"channel"}, nil,
	)
)

// signalSource is the registry reported by the signals collector.
var signalSource atomic.Pointer[signals.Registry]

// signalCollector reads listener counts at scrape time, so detached
// channels show up as zero while a bulk load runs.
type signalCollector struct{}

func (signalCollector) Describe(ch chan<- *prometheus.Desc) { ch <- signalListenersDesc }

func (signalCollector) Collect(ch chan<- prometheus.Metric) {
	reg := signalSource.Load()
	if reg == nil {
		return
	}
	for _, n := range reg.Names() {
		ch <- prometheus.MustNewConstMetric(signalListenersDesc, prometheus.GaugeValue, float64(len(reg.Listeners(n))), string(n))
	}
}

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, lookupMissTotal, signalCollector{})
}

// RegisterSignalMetrics exposes reg's listener counts on /metrics.
func RegisterSignalMetrics(reg *signals.Registry) { signalSource.Store(reg) }

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware instruments requests for Prometheus
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		httpInflight.WithLabelValues(method).Inc()
		defer httpInflight.WithLabelValues(method).Dec()

		sr := &statusRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sr, r)
		// the pattern is only complete once routing has finished
		path := routePatternOrPath(r)
		statusLabel := strconv.Itoa(sr.status)
		dur := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(path, method, statusLabel).Inc()
		httpRequestDuration.WithLabelValues(path, method, statusLabel).Observe(dur)
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// IncrementLookupMiss is called when a page answers 404 for a missing object.
func IncrementLookupMiss(page string) {
	if page == "" {
		page = "unspecified"
	}
	lookupMissTotal.WithLabelValues(page).Inc()
}
