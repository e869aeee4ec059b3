// Package metrics holds the Prometheus collectors for the conversation store.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the store collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	MessagesAppended  *prometheus.CounterVec
	UnreadResets      prometheus.Counter
	Joins             prometheus.Counter
	ListBuilds        prometheus.Counter
	ListBuildDuration prometheus.Histogram
	ListEntries       prometheus.Gauge
	StoreErrors       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesAppended: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "huddle",
				Subsystem: "store",
				Name:      "messages_appended_total",
				Help:      "Messages appended to conversation logs",
			},
			[]string{"source"},
		),
		UnreadResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "huddle",
			Subsystem: "store",
			Name:      "unread_resets_total",
			Help:      "Conversations opened (unread count reset)",
		}),
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "huddle",
			Subsystem: "store",
			Name:      "joins_total",
			Help:      "Conversation join operations",
		}),
		ListBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "huddle",
			Subsystem: "chatlist",
			Name:      "builds_total",
			Help:      "Chat list builds",
		}),
		ListBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "huddle",
			Subsystem: "chatlist",
			Name:      "build_duration_seconds",
			Help:      "Chat list build duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		ListEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "huddle",
			Subsystem: "chatlist",
			Name:      "entries",
			Help:      "Entries in the most recent chat list",
		}),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "huddle",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Store operations that failed",
			},
			[]string{"op", "kind"},
		),
	}
	reg.MustRegister(
		m.MessagesAppended,
		m.UnreadResets,
		m.Joins,
		m.ListBuilds,
		m.ListBuildDuration,
		m.ListEntries,
		m.StoreErrors,
	)
	return m
}

// Appended counts n messages appended from source (sent, received, seeded).
func (m *Metrics) Appended(source string, n int) {
	if m == nil {
		return
	}
	m.MessagesAppended.WithLabelValues(source).Add(float64(n))
}

// Opened counts an unread reset.
func (m *Metrics) Opened() {
	if m == nil {
		return
	}
	m.UnreadResets.Inc()
}

// Joined counts a join.
func (m *Metrics) Joined() {
	if m == nil {
		return
	}
	m.Joins.Inc()
}

// Built records a chat list build. Its signature matches the chatlist
// builder observer.
func (m *Metrics) Built(entries int, took time.Duration) {
	if m == nil {
		return
	}
	m.ListBuilds.Inc()
	m.ListBuildDuration.Observe(took.Seconds())
	m.ListEntries.Set(float64(entries))
}

// Failed counts a failed store operation; kind is "validation" or "persistence".
func (m *Metrics) Failed(op, kind string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op, kind).Inc()
}
