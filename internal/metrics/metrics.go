// Package metrics exposes Prometheus counters and histograms for the graph
// core: edge/node mutation rates and propagation pass durations. None of
// this feeds back into propagation behaviour — it's an observation-only
// side channel a host process can scrape.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups every metric this package owns so a caller can hold one
// instance per graph rather than relying on package-level globals when it
// needs independent counters (e.g. one per worker in a multi-graph build).
// It registers its metrics against a caller-supplied prometheus.Registerer
// via promauto rather than implementing prometheus.Collector itself.
type Registry struct {
	nodesAdded   prometheus.Counter
	nodesRemoved prometheus.Counter
	edgesAdded   *prometheus.CounterVec
	edgesRemoved *prometheus.CounterVec
	liveEdges    prometheus.Gauge

	propagationRuns        prometheus.Counter
	propagationDuration    prometheus.Histogram
	propagationDiagnostics prometheus.Counter
	assetsVisitedDown      prometheus.Counter
	assetsVisitedUp        prometheus.Counter
}

// NewRegistry registers a fresh set of metrics under reg. Passing
// prometheus.NewRegistry() (rather than the global DefaultRegisterer) keeps
// multiple Registry instances in a test process from colliding.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		nodesAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "graph",
			Name:      "nodes_added_total",
			Help:      "Total nodes added to the asset graph.",
		}),
		nodesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "graph",
			Name:      "nodes_removed_total",
			Help:      "Total nodes removed from the asset graph, including orphan cascades.",
		}),
		edgesAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "graph",
			Name:      "edges_added_total",
			Help:      "Total edges added, by edge type.",
		}, []string{"edge_type"}),
		edgesRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "graph",
			Name:      "edges_removed_total",
			Help:      "Total edges removed, by edge type.",
		}, []string{"edge_type"}),
		liveEdges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphcore",
			Subsystem: "graph",
			Name:      "live_edges",
			Help:      "Current number of live edges in the graph.",
		}),
		propagationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "symbolprop",
			Name:      "runs_total",
			Help:      "Total PropagateSymbols invocations.",
		}),
		propagationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "graphcore",
			Subsystem: "symbolprop",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a PropagateSymbols call.",
			Buckets:   prometheus.DefBuckets,
		}),
		propagationDiagnostics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "symbolprop",
			Name:      "diagnostics_total",
			Help:      "Total symbol-resolution diagnostics produced across all runs.",
		}),
		assetsVisitedDown: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "symbolprop",
			Name:      "assets_visited_down_total",
			Help:      "Total asset-visitor invocations during the down pass.",
		}),
		assetsVisitedUp: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graphcore",
			Subsystem: "symbolprop",
			Name:      "assets_visited_up_total",
			Help:      "Total asset-visitor invocations during the up pass.",
		}),
	}
}

// Every method is nil-safe: a nil *Registry (the zero value of
// symbolprop.Config.Metrics) makes instrumentation a no-op rather than
// forcing every caller to construct a Registry it doesn't want.

func (r *Registry) NodeAdded() {
	if r != nil {
		r.nodesAdded.Inc()
	}
}

func (r *Registry) NodeRemoved() {
	if r != nil {
		r.nodesRemoved.Inc()
	}
}

func (r *Registry) EdgeAdded(edgeType string) {
	if r != nil {
		r.edgesAdded.WithLabelValues(edgeType).Inc()
		r.liveEdges.Inc()
	}
}

func (r *Registry) EdgeRemoved(edgeType string) {
	if r != nil {
		r.edgesRemoved.WithLabelValues(edgeType).Inc()
		r.liveEdges.Dec()
	}
}

func (r *Registry) AssetVisitedDown() {
	if r != nil {
		r.assetsVisitedDown.Inc()
	}
}

func (r *Registry) AssetVisitedUp() {
	if r != nil {
		r.assetsVisitedUp.Inc()
	}
}

func (r *Registry) DiagnosticsEmitted(n int) {
	if r != nil && n > 0 {
		r.propagationDiagnostics.Add(float64(n))
	}
}

// ObservePropagationRun records one PropagateSymbols call's duration. Call
// via `defer reg.ObservePropagationRun(time.Now())`.
func (r *Registry) ObservePropagationRun(start time.Time) {
	if r != nil {
		r.propagationRuns.Inc()
		r.propagationDuration.Observe(time.Since(start).Seconds())
	}
}
