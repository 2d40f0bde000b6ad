package metrics

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestHistogramPercentiles(t *testing.T) {
	h := NewHistogram([]int64{100, 1000, 10000, math.MaxInt64})

	// 90 observations in the first bucket, 10 in the second.
	for i := 0; i < 90; i++ {
		h.Observe(50 * time.Microsecond)
	}
	for i := 0; i < 10; i++ {
		h.Observe(500 * time.Microsecond)
	}

	snap := h.Snapshot()
	if snap.Total != 100 {
		t.Fatalf("total = %d; want 100", snap.Total)
	}
	if snap.P50 != 100*time.Microsecond {
		t.Errorf("p50 = %v; want 100µs", snap.P50)
	}
	if snap.P95 != 1000*time.Microsecond {
		t.Errorf("p95 = %v; want 1ms", snap.P95)
	}
}

func TestHistogramOverflowBucket(t *testing.T) {
	h := NewHistogram([]int64{100, math.MaxInt64})
	h.Observe(time.Hour)
	snap := h.Snapshot()
	if snap.Total != 1 {
		t.Fatalf("total = %d", snap.Total)
	}
	// Catch-all bucket reports the previous bound.
	if snap.P99 != 100*time.Microsecond {
		t.Errorf("p99 = %v; want best-effort 100µs", snap.P99)
	}
}

func TestHistogramEmptySnapshot(t *testing.T) {
	h := NewHistogram(BucketsSearch)
	if snap := h.Snapshot(); snap != (Snapshot{}) {
		t.Errorf("empty snapshot = %+v", snap)
	}
}

func TestHistogramConcurrentObserve(t *testing.T) {
	h := NewHistogram(BucketsBarcode)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				h.Observe(time.Duration(i) * time.Microsecond)
			}
		}()
	}
	wg.Wait()
	if snap := h.Snapshot(); snap.Total != 8000 {
		t.Errorf("total = %d; want 8000", snap.Total)
	}
}

func TestRegistryReusesHistograms(t *testing.T) {
	reg := NewRegistry()
	a := reg.Register("search", BucketsSearch)
	b := reg.Register("search", BucketsBarcode)
	if a != b {
		t.Error("re-registering a name returned a new histogram")
	}
	a.Observe(time.Millisecond)
	snaps := reg.Snapshot()
	if snaps["search"].Total != 1 {
		t.Errorf("registry snapshot = %+v", snaps)
	}
}
