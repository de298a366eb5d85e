// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Render metrics
	RendersTotal     *prometheus.CounterVec
	RenderDuration   *prometheus.HistogramVec
	RasterFallbacks  *prometheus.CounterVec
	InvalidAddresses prometheus.Counter
	RenderPanics     prometheus.Counter

	// Cache metrics
	OutputCacheHits   *prometheus.CounterVec
	OutputCacheMisses *prometheus.CounterVec
	NotModified       prometheus.Counter
	AssetLoads        *prometheus.CounterVec

	// Balance metrics
	BalanceLookups *prometheus.CounterVec
	RPCCallLatency *prometheus.HistogramVec

	// Analytics metrics
	EventsRecorded  prometheus.Counter
	EventsDropped   prometheus.Counter
	EventsFlushed   prometheus.Counter
	FeedSubscribers prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Share metrics
	ShareLinksCreated prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_avatar_lab"
	}

	return &Metrics{
		// Render metrics
		RendersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "renders_total",
			Help:      "Total number of renders by renderer, format and status",
		}, []string{"renderer", "format", "status"}),
		RenderDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Render duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"renderer", "format"}),
		RasterFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "raster_fallbacks_total",
			Help:      "Total number of PNG requests served as SVG after rasterization failed",
		}, []string{"renderer"}),
		InvalidAddresses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "invalid_addresses_total",
			Help:      "Total number of requests rejected by address validation",
		}),
		RenderPanics: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "panics_total",
			Help:      "Total number of recovered handler panics",
		}),

		// Cache metrics
		OutputCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "output_hits_total",
			Help:      "Total number of rendered outputs served from the LRU",
		}, []string{"renderer"}),
		OutputCacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "output_misses_total",
			Help:      "Total number of rendered outputs computed",
		}, []string{"renderer"}),
		NotModified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "not_modified_total",
			Help:      "Total number of 304 responses",
		}),
		AssetLoads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "asset_loads_total",
			Help:      "Total number of bitmap asset loads from disk by result",
		}, []string{"asset", "result"}),

		// Balance metrics
		BalanceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balance",
			Name:      "lookups_total",
			Help:      "Total number of balance lookups by source and status",
		}, []string{"source", "status"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Analytics metrics
		EventsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "events_recorded_total",
			Help:      "Total number of render events accepted by the recorder",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "events_dropped_total",
			Help:      "Total number of render events dropped because the buffer was full",
		}),
		EventsFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "events_flushed_total",
			Help:      "Total number of render events written to the event store",
		}),
		FeedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Current number of live feed websocket subscribers",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		ShareLinksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "links_created_total",
			Help:      "Total number of share links registered",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRender records a completed render.
func RecordRender(renderer, format, status string, seconds float64) {
	DefaultMetrics.RendersTotal.WithLabelValues(renderer, format, status).Inc()
	DefaultMetrics.RenderDuration.WithLabelValues(renderer, format).Observe(seconds)
}

// RecordRasterFallback records a PNG request that was served as SVG.
func RecordRasterFallback(renderer string) {
	DefaultMetrics.RasterFallbacks.WithLabelValues(renderer).Inc()
}

// RecordInvalidAddress increments the validation rejection counter.
func RecordInvalidAddress() {
	DefaultMetrics.InvalidAddresses.Inc()
}

// RecordPanic increments the recovered panic counter.
func RecordPanic() {
	DefaultMetrics.RenderPanics.Inc()
}

// RecordOutputCache records an output LRU lookup.
func RecordOutputCache(renderer string, hit bool) {
	if hit {
		DefaultMetrics.OutputCacheHits.WithLabelValues(renderer).Inc()
		return
	}
	DefaultMetrics.OutputCacheMisses.WithLabelValues(renderer).Inc()
}

// RecordNotModified increments the 304 counter.
func RecordNotModified() {
	DefaultMetrics.NotModified.Inc()
}

// RecordAssetLoad records a bitmap asset read from disk.
func RecordAssetLoad(asset string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	DefaultMetrics.AssetLoads.WithLabelValues(asset, result).Inc()
}

// RecordBalanceLookup records a balance provider lookup.
func RecordBalanceLookup(source string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.BalanceLookups.WithLabelValues(source, status).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordEventRecorded increments the accepted render event counter.
func RecordEventRecorded() {
	DefaultMetrics.EventsRecorded.Inc()
}

// RecordEventDropped increments the dropped render event counter.
func RecordEventDropped() {
	DefaultMetrics.EventsDropped.Inc()
}

// RecordEventsFlushed adds n to the flushed render event counter.
func RecordEventsFlushed(n int) {
	DefaultMetrics.EventsFlushed.Add(float64(n))
}

// SetFeedSubscribers updates the live feed subscriber gauge.
func SetFeedSubscribers(n int) {
	DefaultMetrics.FeedSubscribers.Set(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordShareLinkCreated increments the share link counter.
func RecordShareLinkCreated() {
	DefaultMetrics.ShareLinksCreated.Inc()
}
