package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the sync, mutation, and polling
// paths. NewMetrics does not register anything; the binary registers the set
// once against the default registry, tests use unregistered instances.
type Metrics struct {
	EventsApplied     *prometheus.CounterVec // labels: kind, op
	MalformedEvents   *prometheus.CounterVec // labels: kind
	SyncRefreshes     *prometheus.CounterVec // labels: kind
	StreamDrops       *prometheus.CounterVec // labels: kind
	OptimisticCreates *prometheus.CounterVec // labels: kind
	Reconciliations   *prometheus.CounterVec // labels: kind
	Rollbacks         *prometheus.CounterVec // labels: kind, op={create,update,delete}
	UndoRestores      *prometheus.CounterVec // labels: kind
	HazardPolls       *prometheus.CounterVec // labels: feed, outcome={success,error}
}

func NewMetrics() *Metrics {
	return &Metrics{
		EventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "change_events_applied_total",
			Help:      "Change events applied to the entity store.",
		}, []string{"kind", "op"}),
		MalformedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "change_events_malformed_total",
			Help:      "Change events dropped because the payload was unusable.",
		}, []string{"kind"}),
		SyncRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "sync_refreshes_total",
			Help:      "Explicit full re-fetches of an entity collection.",
		}, []string{"kind"}),
		StreamDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "sync_stream_drops_total",
			Help:      "Subscription streams that terminated.",
		}, []string{"kind"}),
		OptimisticCreates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "optimistic_creates_total",
			Help:      "Locally applied creations awaiting confirmation.",
		}, []string{"kind"}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "reconciliations_total",
			Help:      "Optimistic placeholders replaced by confirmed records.",
		}, []string{"kind"}),
		Rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "rollbacks_total",
			Help:      "Optimistic mutations undone after a remote failure.",
		}, []string{"kind", "op"}),
		UndoRestores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "undo_restores_total",
			Help:      "Deleted records restored from the undo buffer.",
		}, []string{"kind"}),
		HazardPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reliefmap",
			Name:      "hazard_polls_total",
			Help:      "Hazard feed poll cycles by outcome.",
		}, []string{"feed", "outcome"}),
	}
}

// MustRegister registers every metric with reg. Call once per process.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.EventsApplied,
		m.MalformedEvents,
		m.SyncRefreshes,
		m.StreamDrops,
		m.OptimisticCreates,
		m.Reconciliations,
		m.Rollbacks,
		m.UndoRestores,
		m.HazardPolls,
	)
}
