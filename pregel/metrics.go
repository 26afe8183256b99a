package pregel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RuntimeMetrics collects Prometheus metrics describing runtime execution,
// namespaced "pregel_". Attach via WithMetrics.
type RuntimeMetrics struct {
	inflightVertices prometheus.Gauge
	runnableSetSize  prometheus.Gauge

	supersteLatency *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	checkpoints     *prometheus.CounterVec
	routingErrors   *prometheus.CounterVec

	enabled bool
}

// NewRuntimeMetrics registers the runtime's metric set with registry. A nil
// registry uses prometheus.DefaultRegisterer.
func NewRuntimeMetrics(registry prometheus.Registerer) *RuntimeMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	f := promauto.With(registry)

	return &RuntimeMetrics{
		enabled: true,
		inflightVertices: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pregel",
			Name:      "inflight_vertices",
			Help:      "Vertex computations currently in flight within the active superstep",
		}),
		runnableSetSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pregel",
			Name:      "runnable_set_size",
			Help:      "Number of vertices scheduled for the current superstep",
		}),
		supersteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pregel",
			Name:      "superstep_latency_ms",
			Help:      "Wall-clock duration of one superstep, start to commit",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		}, []string{"run_id"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pregel",
			Name:      "vertex_retries_total",
			Help:      "Cumulative vertex retry attempts",
		}, []string{"run_id", "vertex_id"}),
		checkpoints: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pregel",
			Name:      "checkpoints_total",
			Help:      "Checkpoints saved, by outcome",
		}, []string{"run_id", "outcome"}),
		routingErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pregel",
			Name:      "routing_errors_total",
			Help:      "Messages dropped or failed during routing",
		}, []string{"run_id", "reason"}),
	}
}

func (m *RuntimeMetrics) recordSuperstepLatency(runID string, d time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	m.supersteLatency.WithLabelValues(runID).Observe(float64(d.Milliseconds()))
}

func (m *RuntimeMetrics) setRunnableSetSize(n int) {
	if m == nil || !m.enabled {
		return
	}
	m.runnableSetSize.Set(float64(n))
}

func (m *RuntimeMetrics) addInflight(delta int) {
	if m == nil || !m.enabled {
		return
	}
	m.inflightVertices.Add(float64(delta))
}

func (m *RuntimeMetrics) incRetry(runID string, vertex VertexId) {
	if m == nil || !m.enabled {
		return
	}
	m.retries.WithLabelValues(runID, string(vertex)).Inc()
}

func (m *RuntimeMetrics) incCheckpoint(runID, outcome string) {
	if m == nil || !m.enabled {
		return
	}
	m.checkpoints.WithLabelValues(runID, outcome).Inc()
}

func (m *RuntimeMetrics) incRoutingError(runID, reason string) {
	if m == nil || !m.enabled {
		return
	}
	m.routingErrors.WithLabelValues(runID, reason).Inc()
}
