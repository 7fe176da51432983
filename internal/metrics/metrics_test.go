package metrics

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounterAndGauge(t *testing.T) {
	r := NewRegistry("test")

	c := r.RegisterCounter("commits_total", "commits")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Errorf("counter = %d, want 3", c.Value())
	}

	g := r.RegisterGauge("active_contexts", "contexts")
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 1 {
		t.Errorf("gauge = %d, want 1", g.Value())
	}

	// Re-registering returns the same instrument.
	if r.RegisterCounter("commits_total", "commits") != c {
		t.Error("re-registration created a new counter")
	}
}

func TestHistogram(t *testing.T) {
	r := NewRegistry("test")
	h := r.RegisterHistogram("key_duration_seconds", "keys", DurationBuckets)

	h.Observe(0.002)
	h.ObserveDuration(10 * time.Millisecond)

	if h.Count() != 2 {
		t.Errorf("count = %d, want 2", h.Count())
	}
	if mean := h.Mean(); mean <= 0 {
		t.Errorf("mean = %f, want positive", mean)
	}
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("ojitype")
	r.RegisterCounter("commits_total", "Total commits").Inc()
	r.RegisterGauge("table_sequences", "Sequences").Set(532)

	var buf bytes.Buffer
	if err := r.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# TYPE ojitype_commits_total counter",
		"ojitype_commits_total 1",
		"ojitype_table_sequences 532",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGetMetricsSingleton(t *testing.T) {
	got := make([]*OjitypeMetrics, 8)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = GetMetrics()
		}(i)
	}
	wg.Wait()

	for i, m := range got {
		if m == nil || m != got[0] {
			t.Fatalf("GetMetrics call %d returned a different instance", i)
		}
	}
}

func TestSnapshot(t *testing.T) {
	m := NewOjitypeMetrics(NewRegistry("snap"))
	m.RecordCommit()
	m.ContextOpened()

	snap := m.Snapshot()
	if snap["snap_commits_total"] != uint64(1) {
		t.Errorf("commits = %v", snap["snap_commits_total"])
	}
	if snap["snap_active_contexts"] != int64(1) {
		t.Errorf("contexts = %v", snap["snap_active_contexts"])
	}
}
