// Package metrics provides Prometheus metrics for the koun session service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Tally
	tallyRuns          prometheus.Counter
	tallyDuration      prometheus.Histogram
	tallyUnits         prometheus.Histogram
	validationWarnings prometheus.Counter
	nothingToCompute   prometheus.Counter

	// Render
	renderDuration prometheus.Histogram
	renderBytes    prometheus.Histogram
	fontFallbacks  prometheus.Counter

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsRemoved *prometheus.CounterVec

	// Sheets
	sheetImports *prometheus.CounterVec
	sheetExports *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init rebuilds the global metrics from opts on a fresh registry, which
// GetRegistry then returns. Call it before serving the registry.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts[:len(opts):len(opts)], WithPrometheusRegistry(registry))
	globalManager = NewManager(opts...)
	customRegistry = registry
}

// NewManager creates a new metrics manager. Without WithPrometheusRegistry
// the metrics are registered on the default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "koun",
		subsystem:        "session",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.tallyRuns = m.counter("tally_runs_total", "Total number of tally computations")
	m.tallyDuration = m.histogram("tally_duration_milliseconds", "Tally computation time in milliseconds", m.histogramBuckets)
	m.tallyUnits = m.histogram("tally_units_consumed", "Usage units consumed per tally run",
		[]float64{0, 4, 8, 16, 32, 64, 128, 256})
	m.validationWarnings = m.counter("validation_warnings_total", "Total number of game column validation warnings")
	m.nothingToCompute = m.counter("nothing_to_compute_total", "Calculations requested on tables with no named rows")

	m.renderDuration = m.histogram("render_duration_milliseconds", "Table image render time in milliseconds", m.histogramBuckets)
	m.renderBytes = m.histogram("render_bytes", "Size of rendered PNG images in bytes",
		prometheus.ExponentialBuckets(1024, 2, 10))
	m.fontFallbacks = m.counter("font_fallbacks_total", "Times the built-in font replaced a configured one")

	m.sessionsActive = m.gauge("active", "Number of live sessions")
	m.sessionsCreated = m.counter("created_total", "Total number of sessions created")
	m.sessionsRemoved = m.counterVec("removed_total", "Sessions removed by reason", "reason")

	m.sheetImports = m.counterVec("sheet_imports_total", "Tables imported by format", "format")
	m.sheetExports = m.counterVec("sheet_exports_total", "Tables exported by format", "format")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations in milliseconds",
		m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordTallyRun records one tally computation.
func RecordTallyRun(durationMs float64, units int) {
	globalManager.tallyRuns.Inc()
	globalManager.tallyDuration.Observe(durationMs)
	globalManager.tallyUnits.Observe(float64(units))
}

// RecordValidationWarnings adds n column validation warnings.
func RecordValidationWarnings(n int) {
	if n > 0 {
		globalManager.validationWarnings.Add(float64(n))
	}
}

// RecordNothingToCompute counts a calculation on a table with no names.
func RecordNothingToCompute() {
	globalManager.nothingToCompute.Inc()
}

// RecordRender records one rendered image.
func RecordRender(durationMs float64, size int) {
	globalManager.renderDuration.Observe(durationMs)
	globalManager.renderBytes.Observe(float64(size))
}

// RecordFontFallback counts a substitution of the built-in font.
func RecordFontFallback() {
	globalManager.fontFallbacks.Inc()
}

// UpdateActiveSessions sets the live session gauge.
func UpdateActiveSessions(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionRemoved counts a removed session. reason is one of
// "deleted", "evicted" or "expired".
func RecordSessionRemoved(reason string) {
	globalManager.sessionsRemoved.WithLabelValues(reason).Inc()
}

// RecordSheetImport counts an imported table.
func RecordSheetImport(format string) {
	globalManager.sheetImports.WithLabelValues(format).Inc()
}

// RecordSheetExport counts an exported table.
func RecordSheetExport(format string) {
	globalManager.sheetExports.WithLabelValues(format).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error for an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns how often runtime gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the registry the global metrics are served from.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
