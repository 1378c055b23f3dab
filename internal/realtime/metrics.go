package realtime

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frer-max/fassr/internal/state"
)

// Metrics holds the realtime collectors. A nil *Metrics records nothing.
type Metrics struct {
	subscribers prometheus.Gauge
	signals     *prometheus.CounterVec
	dropped     prometheus.Counter
	frames      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fassr",
			Subsystem: "realtime",
			Name:      "subscribers",
			Help:      "Open update streams.",
		}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fassr",
			Subsystem: "realtime",
			Name:      "signals_published_total",
			Help:      "Change signals published to the hub.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fassr",
			Subsystem: "realtime",
			Name:      "signals_coalesced_total",
			Help:      "Signals merged into one already pending for the same subscriber.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fassr",
			Subsystem: "realtime",
			Name:      "frames_written_total",
			Help:      "Frames written to update streams.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.subscribers, m.signals, m.dropped, m.frames)
	}
	return m
}

func (m *Metrics) setSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

func (m *Metrics) published(kind state.Kind) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) coalesced() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) frame(kind string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(kind).Inc()
}
