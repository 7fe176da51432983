package metrics

import (
	"sync"
	"time"
)

// OjitypeMetrics holds all ojitype-specific metrics.
type OjitypeMetrics struct {
	registry *Registry

	// Counters
	KeyEventsTotal    *Counter
	CommitsTotal      *Counter
	SyllablesComposed *Counter
	LookupMissesTotal *Counter
	CompilesTotal     *Counter
	ReloadsTotal      *Counter
	CacheHitsTotal    *Counter
	ErrorsTotal       *Counter

	// Gauges
	ActiveContexts *Gauge
	TableSequences *Gauge
	UptimeSeconds  *Gauge

	// Histograms
	CompileDuration *Histogram
	KeyDuration     *Histogram
}

var startTime = time.Now()

// NewOjitypeMetrics creates and registers all ojitype metrics.
func NewOjitypeMetrics(registry *Registry) *OjitypeMetrics {
	if registry == nil {
		registry = Default()
	}

	return &OjitypeMetrics{
		registry: registry,

		KeyEventsTotal: registry.RegisterCounter(
			"key_events_total",
			"Total number of key events processed",
		),
		CommitsTotal: registry.RegisterCounter(
			"commits_total",
			"Total number of committed output strings",
		),
		SyllablesComposed: registry.RegisterCounter(
			"syllables_composed_total",
			"Total number of composed syllable lookups that hit",
		),
		LookupMissesTotal: registry.RegisterCounter(
			"lookup_misses_total",
			"Total number of composition lookups that missed",
		),
		CompilesTotal: registry.RegisterCounter(
			"compiles_total",
			"Total number of definition table compilations",
		),
		ReloadsTotal: registry.RegisterCounter(
			"reloads_total",
			"Total number of live table reloads",
		),
		CacheHitsTotal: registry.RegisterCounter(
			"cache_hits_total",
			"Total number of compiled table cache hits",
		),
		ErrorsTotal: registry.RegisterCounter(
			"errors_total",
			"Total number of errors",
		),

		ActiveContexts: registry.RegisterGauge(
			"active_contexts",
			"Number of currently open input contexts",
		),
		TableSequences: registry.RegisterGauge(
			"table_sequences",
			"Number of composition sequences in the active table",
		),
		UptimeSeconds: registry.RegisterGauge(
			"uptime_seconds",
			"Number of seconds the engine has been running",
		),

		CompileDuration: registry.RegisterHistogram(
			"compile_duration_seconds",
			"Duration of table compilations in seconds",
			DurationBuckets,
		),
		KeyDuration: registry.RegisterHistogram(
			"key_duration_seconds",
			"Duration of single key event processing in seconds",
			DurationBuckets,
		),
	}
}

// RecordKeyEvent records one processed key event.
func (m *OjitypeMetrics) RecordKeyEvent(d time.Duration) {
	m.KeyEventsTotal.Inc()
	m.KeyDuration.ObserveDuration(d)
}

// RecordCommit records a committed output string.
func (m *OjitypeMetrics) RecordCommit() {
	m.CommitsTotal.Inc()
}

// RecordCompile records a table compilation.
func (m *OjitypeMetrics) RecordCompile(d time.Duration, sequences int) {
	m.CompilesTotal.Inc()
	m.CompileDuration.ObserveDuration(d)
	m.TableSequences.Set(int64(sequences))
}

// RecordError records an error.
func (m *OjitypeMetrics) RecordError() {
	m.ErrorsTotal.Inc()
}

// ContextOpened records an input context opening.
func (m *OjitypeMetrics) ContextOpened() {
	m.ActiveContexts.Inc()
}

// ContextClosed records an input context closing.
func (m *OjitypeMetrics) ContextClosed() {
	m.ActiveContexts.Dec()
}

// UpdateUptime updates the uptime metric.
func (m *OjitypeMetrics) UpdateUptime() {
	m.UptimeSeconds.Set(int64(time.Since(startTime).Seconds()))
}

// Snapshot returns a snapshot of key metrics.
func (m *OjitypeMetrics) Snapshot() map[string]interface{} {
	m.UpdateUptime()
	return m.registry.Snapshot()
}

// Global default registry.
var defaultRegistry = NewRegistry("ojitype")

// Default returns the default global registry.
func Default() *Registry {
	return defaultRegistry
}

var (
	metricsOnce           sync.Once
	defaultOjitypeMetrics *OjitypeMetrics
)

// GetMetrics returns the global ojitype metrics instance.
func GetMetrics() *OjitypeMetrics {
	metricsOnce.Do(func() {
		defaultOjitypeMetrics = NewOjitypeMetrics(Default())
	})
	return defaultOjitypeMetrics
}
