package netchan

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposed by the channel runtime and the relocation
// protocol. All counters are optional, components accept a nil
// Metrics and simply skip the accounting.
type Metrics struct {
	// Writes sent through a connected endpoint binding.
	WritesSent prometheus.Counter

	// Writes accepted while the endpoint had no live binding.
	WritesDeferred prometheus.Counter

	// Writes re-sent after a recreate re-established a binding.
	WritesReplayed prometheus.Counter

	// Writes delivered by a registry into a hosted channel.
	WritesDelivered prometheus.Counter

	// Replayed writes the registry recognized and dropped.
	WritesDeduped prometheus.Counter

	// Successfully completed endpoint relocations.
	Relocations prometheus.Counter

	// Recreate handshakes that fell back to the disconnected state.
	RelocationFailures prometheus.Counter
}

// NewMetrics creates the counters and registers them on the given
// registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		WritesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netchan",
			Name:      "writes_sent_total",
			Help:      "Writes sent through a connected endpoint binding.",
		}),
		WritesDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netchan",
			Name:      "writes_deferred_total",
			Help:      "Writes buffered while the endpoint had no live binding.",
		}),
		WritesReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netchan",
			Name:      "writes_replayed_total",
			Help:      "Writes re-sent after a binding was re-established.",
		}),
		WritesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netchan",
			Name:      "writes_delivered_total",
			Help:      "Writes delivered into a hosted channel input end.",
		}),
		WritesDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netchan",
			Name:      "writes_deduped_total",
			Help:      "Replayed writes recognized and dropped by the host.",
		}),
		Relocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netchan",
			Name:      "relocations_total",
			Help:      "Completed endpoint relocations.",
		}),
		RelocationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netchan",
			Name:      "relocation_failures_total",
			Help:      "Recreate handshakes that fell back to disconnected.",
		}),
	}
	registerer.MustRegister(
		m.WritesSent,
		m.WritesDeferred,
		m.WritesReplayed,
		m.WritesDelivered,
		m.WritesDeduped,
		m.Relocations,
		m.RelocationFailures,
	)
	return m
}

// The increment helpers are nil-safe so components can skip the
// accounting when no metrics were configured.

func (m *Metrics) incWritesSent() {
	if m != nil {
		m.WritesSent.Inc()
	}
}

func (m *Metrics) incWritesDeferred() {
	if m != nil {
		m.WritesDeferred.Inc()
	}
}

func (m *Metrics) incWritesReplayed() {
	if m != nil {
		m.WritesReplayed.Inc()
	}
}

func (m *Metrics) incWritesDelivered() {
	if m != nil {
		m.WritesDelivered.Inc()
	}
}

func (m *Metrics) incWritesDeduped() {
	if m != nil {
		m.WritesDeduped.Inc()
	}
}

func (m *Metrics) incRelocations() {
	if m != nil {
		m.Relocations.Inc()
	}
}

func (m *Metrics) incRelocationFailures() {
	if m != nil {
		m.RelocationFailures.Inc()
	}
}
