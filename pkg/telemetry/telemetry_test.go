package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith(reg, "geodiv_test")

	c.RecordRun("P_Ne", "ok")
	c.RecordRun("P_Ne", "ok")
	c.RecordRun("A_SHDI", "error")

	got := testutil.ToFloat64(c.RunsTotal.WithLabelValues("P_Ne", "ok"))
	if got != 2 {
		t.Errorf("runs_total{P_Ne,ok} got %v, want 2", got)
	}
	got = testutil.ToFloat64(c.RunsTotal.WithLabelValues("A_SHDI", "error"))
	if got != 1 {
		t.Errorf("runs_total{A_SHDI,error} got %v, want 1", got)
	}
}

func TestRecordSkip(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith(reg, "geodiv_test")

	c.RecordSkip("category_domain", 3)
	c.RecordSkip("category_domain", 0) // no-op
	c.RecordSkip("nodata", 7)

	got := testutil.ToFloat64(c.FeaturesSkipped.WithLabelValues("category_domain"))
	if got != 3 {
		t.Errorf("features_skipped_total{category_domain} got %v, want 3", got)
	}
	got = testutil.ToFloat64(c.FeaturesSkipped.WithLabelValues("nodata"))
	if got != 7 {
		t.Errorf("features_skipped_total{nodata} got %v, want 7", got)
	}
}

func TestTimerObserves(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith(reg, "geodiv_test")

	timer := c.NewTimer(c.CatalogBuildDuration)
	time.Sleep(5 * time.Millisecond)
	d := timer.ObserveDuration()

	if d <= 0 {
		t.Errorf("observed duration got %v, want > 0", d)
	}
	count := testutil.CollectAndCount(c.CatalogBuildDuration)
	if count != 1 {
		t.Errorf("catalog build histogram metric count got %d, want 1", count)
	}
}

func TestNilObserverTimer(t *testing.T) {
	timer := &Timer{start: time.Now()}
	if d := timer.ObserveDuration(); d < 0 {
		t.Errorf("duration got %v, want >= 0", d)
	}
}
