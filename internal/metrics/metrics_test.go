package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Appended("sent", 1)
	m.Appended("seeded", 3)
	m.Opened()
	m.Opened()
	m.Joined()
	m.Built(4, 2*time.Millisecond)
	m.Failed("send", "validation")

	if got := testutil.ToFloat64(m.MessagesAppended.WithLabelValues("seeded")); got != 3 {
		t.Errorf("seeded = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.UnreadResets); got != 2 {
		t.Errorf("unread resets = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Joins); got != 1 {
		t.Errorf("joins = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ListEntries); got != 4 {
		t.Errorf("list entries = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("send", "validation")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Appended("sent", 1)
	m.Opened()
	m.Joined()
	m.Built(1, time.Millisecond)
	m.Failed("open", "persistence")
}
