package scene

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per-frame visibility numbers. A nil *Metrics records nothing.
type Metrics struct {
	frames         prometheus.Counter
	objects        prometheus.Gauge
	visible        prometheus.Gauge
	culled         prometheus.Gauge
	traversal      prometheus.Histogram
	missedRemovals prometheus.Counter
}

// NewMetrics registers the scene metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "bsptree_frames_total",
			Help: "Frames rendered.",
		}),
		objects: f.NewGauge(prometheus.GaugeOpts{
			Name: "bsptree_objects",
			Help: "Objects held by the partition tree.",
		}),
		visible: f.NewGauge(prometheus.GaugeOpts{
			Name: "bsptree_visible_objects",
			Help: "Objects returned by the last visibility query.",
		}),
		culled: f.NewGauge(prometheus.GaugeOpts{
			Name: "bsptree_culled_objects",
			Help: "Objects skipped by the last visibility query.",
		}),
		traversal: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bsptree_traversal_duration_seconds",
			Help:    "Time spent collecting visible objects.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		missedRemovals: f.NewCounter(prometheus.CounterOpts{
			Name: "bsptree_missed_removals_total",
			Help: "Removals that did not find their object.",
		}),
	}
}

func (m *Metrics) observeFrame(d time.Duration, total, visible int) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.traversal.Observe(d.Seconds())
	m.objects.Set(float64(total))
	m.visible.Set(float64(visible))
	m.culled.Set(float64(total - visible))
}

func (m *Metrics) setObjects(total int) {
	if m == nil {
		return
	}
	m.objects.Set(float64(total))
}

func (m *Metrics) missedRemoval() {
	if m == nil {
		return
	}
	m.missedRemovals.Inc()
}
