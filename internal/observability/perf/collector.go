// Package perf keeps a fixed window of request and query timings in memory and
// aggregates them on demand for the admin perf page.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the capacity used when none is given.
const DefaultRingSize = 10000

// Kind distinguishes HTTP requests from database queries.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Entry is one timing sample.
type Entry struct {
	Kind       Kind
	Path       string // "METHOD /path" for requests, the sql.DB method for queries
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a ring buffer of entries. When full, the oldest entry is overwritten.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	total   atomic.Int64
}

// NewCollector creates a collector holding up to size entries.
// POST: size <= 0 selects DefaultRingSize
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry once the buffer is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded returns how many entries were ever recorded, including overwritten ones.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// PathStat aggregates the samples of one path.
type PathStat struct {
	Path  string  `json:"path"`
	Count int     `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	MaxMs float64 `json:"max_ms"`
}

// KindStats summarises the samples of one kind.
type KindStats struct {
	Count   int        `json:"count"`
	P50Ms   float64    `json:"p50_ms"`
	P95Ms   float64    `json:"p95_ms"`
	P99Ms   float64    `json:"p99_ms"`
	Slowest []PathStat `json:"slowest"`
}

// Snapshot is the aggregated view served by /admin/perf.
type Snapshot struct {
	Since         time.Time `json:"since"`
	TotalRecorded int64     `json:"total_recorded"`
	Requests      KindStats `json:"requests"`
	Queries       KindStats `json:"queries"`
}

// Snapshot aggregates entries recorded at or after since. Slowest lists at most
// topN paths per kind, ordered by average duration descending.
// INVARIANT: the buffer is held locked only while it is copied
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	var requests, queries []Entry
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			requests = append(requests, e)
		case KindQuery:
			queries = append(queries, e)
		}
	}

	return Snapshot{
		Since:         since,
		TotalRecorded: c.TotalRecorded(),
		Requests:      aggregate(requests, topN),
		Queries:       aggregate(queries, topN),
	}
}

func aggregate(entries []Entry, topN int) KindStats {
	stats := KindStats{Count: len(entries), Slowest: []PathStat{}}
	if len(entries) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(entries))
	byPath := make(map[string]*PathStat)
	totals := make(map[string]float64)
	for _, e := range entries {
		durations = append(durations, e.DurationMs)
		s, ok := byPath[e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			byPath[e.Path] = s
		}
		s.Count++
		totals[e.Path] += e.DurationMs
		if e.DurationMs > s.MaxMs {
			s.MaxMs = e.DurationMs
		}
	}

	sort.Float64s(durations)
	stats.P50Ms = percentile(durations, 50)
	stats.P95Ms = percentile(durations, 95)
	stats.P99Ms = percentile(durations, 99)

	for path, s := range byPath {
		s.AvgMs = totals[path] / float64(s.Count)
		stats.Slowest = append(stats.Slowest, *s)
	}
	sort.Slice(stats.Slowest, func(i, j int) bool {
		if stats.Slowest[i].AvgMs != stats.Slowest[j].AvgMs {
			return stats.Slowest[i].AvgMs > stats.Slowest[j].AvgMs
		}
		return stats.Slowest[i].Path < stats.Slowest[j].Path
	})
	if topN >= 0 && len(stats.Slowest) > topN {
		stats.Slowest = stats.Slowest[:topN]
	}
	return stats
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
