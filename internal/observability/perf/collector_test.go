package perf

import (
	"math"
	"testing"
	"time"
)

func record(c *Collector, kind Kind, path string, ms float64, at time.Time) {
	c.Record(Entry{Kind: kind, Path: path, DurationMs: ms, Timestamp: at})
}

// TestCollector_SnapshotSplitsKinds tests requests and queries are aggregated separately.
func TestCollector_SnapshotSplitsKinds(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()
	record(c, KindRequest, "GET /reports/latest", 10, now)
	record(c, KindRequest, "GET /reports/latest", 30, now)
	record(c, KindRequest, "POST /reports/draft", 50, now)
	record(c, KindQuery, "QueryContext", 2, now)

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 4 {
		t.Errorf("TotalRecorded = %d, want 4", snap.TotalRecorded)
	}
	if snap.Requests.Count != 3 || snap.Queries.Count != 1 {
		t.Fatalf("counts = %d/%d, want 3/1", snap.Requests.Count, snap.Queries.Count)
	}
	if got := snap.Requests.Slowest[0]; got.Path != "POST /reports/draft" || got.AvgMs != 50 {
		t.Errorf("slowest = %+v, want POST /reports/draft at 50ms", got)
	}
	latest := snap.Requests.Slowest[1]
	if latest.Count != 2 || latest.AvgMs != 20 || latest.MaxMs != 30 {
		t.Errorf("latest stats = %+v, want count 2 avg 20 max 30", latest)
	}
	if snap.Requests.P50Ms != 30 {
		t.Errorf("P50 = %v, want 30", snap.Requests.P50Ms)
	}
}

// TestCollector_SnapshotSinceAndTopN tests old entries are skipped and the list is capped.
func TestCollector_SnapshotSinceAndTopN(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()
	record(c, KindRequest, "GET /old", 500, now.Add(-2*time.Hour))
	for i, p := range []string{"GET /a", "GET /b", "GET /c"} {
		record(c, KindRequest, p, float64(i+1), now)
	}

	snap := c.Snapshot(now.Add(-time.Hour), 2)
	if snap.Requests.Count != 3 {
		t.Errorf("Count = %d, want 3", snap.Requests.Count)
	}
	if len(snap.Requests.Slowest) != 2 || snap.Requests.Slowest[0].Path != "GET /c" {
		t.Errorf("Slowest = %+v, want GET /c first, 2 entries", snap.Requests.Slowest)
	}
}

// TestCollector_RingOverwrites tests the buffer keeps only the newest entries.
func TestCollector_RingOverwrites(t *testing.T) {
	c := NewCollector(2)
	now := time.Now()
	record(c, KindQuery, "first", 1, now)
	record(c, KindQuery, "second", 1, now)
	record(c, KindQuery, "third", 1, now)

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.Queries.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Queries.Count)
	}
	for _, s := range snap.Queries.Slowest {
		if s.Path == "first" {
			t.Error("expected oldest entry overwritten")
		}
	}
	if c.TotalRecorded() != 3 {
		t.Errorf("TotalRecorded = %d, want 3", c.TotalRecorded())
	}
}

// TestCollector_EmptySnapshot tests an empty collector yields zero stats and empty lists.
func TestCollector_EmptySnapshot(t *testing.T) {
	snap := NewCollector(0).Snapshot(time.Now().Add(-time.Hour), 10)
	if snap.Requests.Count != 0 || snap.Requests.Slowest == nil || len(snap.Requests.Slowest) != 0 {
		t.Errorf("Requests = %+v, want empty non-nil", snap.Requests)
	}
}

// TestPercentile tests interpolation between ranks.
func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	if got := percentile(sorted, 50); math.Abs(got-25) > 1e-9 {
		t.Errorf("p50 = %v, want 25", got)
	}
	if got := percentile(sorted, 100); got != 40 {
		t.Errorf("p100 = %v, want 40", got)
	}
	if got := percentile(nil, 95); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
	if KindQuery.String() != "query" {
		t.Errorf("KindQuery = %q", KindQuery.String())
	}
}
