// Package metrics provides fixed-bucket latency histograms for the lookup
// hot paths (barcode point reads, ranked search, sync runs).
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram is a fixed-bucket latency histogram with lock-free observation.
// Bucket boundaries are upper bounds in microseconds; the last bound must be
// math.MaxInt64 to act as the catch-all bucket.
type Histogram struct {
	bounds []int64
	counts []atomic.Int64
	total  atomic.Int64
}

// NewHistogram creates a Histogram with the given bucket upper bounds
// (in microseconds). The last element should be math.MaxInt64.
func NewHistogram(boundsMicros []int64) *Histogram {
	h := &Histogram{
		bounds: make([]int64, len(boundsMicros)),
		counts: make([]atomic.Int64, len(boundsMicros)),
	}
	copy(h.bounds, boundsMicros)
	return h
}

// Observe records a single latency measurement. Lock-free, no allocation.
func (h *Histogram) Observe(d time.Duration) {
	micros := d.Microseconds()
	idx := len(h.bounds) - 1
	for i, bound := range h.bounds {
		if micros <= bound {
			idx = i
			break
		}
	}
	h.counts[idx].Add(1)
	h.total.Add(1)
}

// Snapshot is a point-in-time percentile summary.
type Snapshot struct {
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Total int64         `json:"total"`
}

// Snapshot captures a consistent view of the histogram.
func (h *Histogram) Snapshot() Snapshot {
	total := h.total.Load()
	if total == 0 {
		return Snapshot{}
	}

	counts := make([]int64, len(h.counts))
	for i := range h.counts {
		counts[i] = h.counts[i].Load()
	}

	return Snapshot{
		P50:   percentile(h.bounds, counts, total, 50),
		P95:   percentile(h.bounds, counts, total, 95),
		P99:   percentile(h.bounds, counts, total, 99),
		Total: total,
	}
}

// percentile returns the upper bound of the bucket containing the pth
// percentile observation. The catch-all bucket reports the previous bound
// as a best-effort estimate.
func percentile(bounds, counts []int64, total int64, p int) time.Duration {
	target := int64(math.Ceil(float64(total) * float64(p) / 100.0))
	var cumulative int64
	for i, c := range counts {
		cumulative += c
		if cumulative < target {
			continue
		}
		bound := bounds[i]
		if bound == math.MaxInt64 {
			if i == 0 {
				return 0
			}
			bound = bounds[i-1]
		}
		return time.Duration(bound) * time.Microsecond
	}
	return 0
}

// Registry holds a named set of histograms.
type Registry struct {
	mu    sync.RWMutex
	hists map[string]*Histogram
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{hists: make(map[string]*Histogram)}
}

// Register creates and stores a named Histogram. Registering an existing
// name returns the existing histogram unchanged.
func (r *Registry) Register(name string, bounds []int64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hists[name]; ok {
		return h
	}
	h := NewHistogram(bounds)
	r.hists[name] = h
	return h
}

// Snapshot returns snapshots for all registered histograms keyed by name.
func (r *Registry) Snapshot() map[string]Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Snapshot, len(r.hists))
	for name, h := range r.hists {
		out[name] = h.Snapshot()
	}
	return out
}

// Pre-defined bucket sets (upper bounds in microseconds).

// BucketsBarcode suits fast point-lookup operations (sub-millisecond expected).
var BucketsBarcode = []int64{50, 100, 250, 500, 750, 1000, 1500, 2000, 5000, 10000, math.MaxInt64}

// BucketsSearch suits ranked search over the snapshot (multi-millisecond expected).
var BucketsSearch = []int64{500, 1000, 2500, 5000, 10000, 15000, 20000, 30000, 50000, 100000, math.MaxInt64}

// BucketsSync suits full sync runs against the remote repository.
var BucketsSync = []int64{50_000, 100_000, 250_000, 500_000, 1_000_000, 2_500_000, 5_000_000, 10_000_000, 30_000_000, math.MaxInt64}
