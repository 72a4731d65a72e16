// Package metrics collects and exposes Prometheus metrics for the
// availability calendar: profile resolution outcomes, toggle writes, and
// live snapshot streams.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records the app's metrics on an injected registry.
type Collector struct {
	resolveTotal  *prometheus.CounterVec
	toggleTotal   prometheus.Counter
	writeFailures prometheus.Counter
	activeStreams prometheus.Gauge
}

// Resolve outcome labels.
const (
	ResolveRemote   = "remote"   // remote document carried the name
	ResolveCache    = "cache"    // remote empty/missing, cached name adopted
	ResolveFallback = "fallback" // synthesized default name
	ResolveDegraded = "degraded" // remote failed, cached value served
	ResolveFailed   = "failed"   // no data from any source
)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whosin_profile_resolve_total",
			Help: "Profile resolutions by outcome source.",
		}, []string{"source"}),
		toggleTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whosin_availability_toggle_total",
			Help: "Availability toggle operations attempted.",
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whosin_write_failures_total",
			Help: "Remote writes that failed and were surfaced to the caller.",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whosin_active_streams",
			Help: "Currently open availability snapshot streams.",
		}),
	}

	reg.MustRegister(
		c.resolveTotal,
		c.toggleTotal,
		c.writeFailures,
		c.activeStreams,
	)
	return c
}

// RecordResolve counts a profile resolution by outcome source.
func (c *Collector) RecordResolve(source string) {
	c.resolveTotal.WithLabelValues(source).Inc()
}

// RecordToggle counts an availability toggle attempt.
func (c *Collector) RecordToggle() { c.toggleTotal.Inc() }

// RecordWriteFailure counts a surfaced remote write failure.
func (c *Collector) RecordWriteFailure() { c.writeFailures.Inc() }

// StreamOpened / StreamClosed track the live stream gauge.
func (c *Collector) StreamOpened() { c.activeStreams.Inc() }
func (c *Collector) StreamClosed() { c.activeStreams.Dec() }

// Handler returns the HTTP handler serving the metrics endpoint for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
