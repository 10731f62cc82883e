package profiler

import (
	"fmt"
	"io"
	"runtime"
	"time"
)

// MemorySample captures memory state at a specific point in time.
type MemorySample struct {
	Timestamp    time.Time // When the sample was taken
	HeapAlloc    uint64    // Currently allocated heap memory (bytes)
	HeapInuse    uint64    // In-use heap memory (bytes)
	TotalAlloc   uint64    // Cumulative bytes allocated
	Mallocs      uint64    // Cumulative allocations count
	PauseTotalNs uint64    // Cumulative GC pause time (nanoseconds)
	NumGC        uint32    // Number of completed GC cycles
}

// CaptureMemory takes a snapshot of current memory statistics.
func CaptureMemory() MemorySample {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemorySample{
		Timestamp:    time.Now(),
		HeapAlloc:    m.HeapAlloc,
		HeapInuse:    m.HeapInuse,
		TotalAlloc:   m.TotalAlloc,
		Mallocs:      m.Mallocs,
		PauseTotalNs: m.PauseTotalNs,
		NumGC:        m.NumGC,
	}
}

// MemoryDelta is the allocation activity between two samples.
type MemoryDelta struct {
	Duration  time.Duration `json:"duration"   yaml:"duration"`
	Allocated uint64        `json:"allocated"  yaml:"allocated"`
	Mallocs   uint64        `json:"mallocs"    yaml:"mallocs"`
	GCCycles  uint32        `json:"gc_cycles"  yaml:"gc_cycles"`
	GCPause   time.Duration `json:"gc_pause"   yaml:"gc_pause"`
	HeapInuse uint64        `json:"heap_inuse" yaml:"heap_inuse"`
}

// Since returns the activity from start up to s. The cumulative counters only
// grow, so s must be the later sample.
func (s MemorySample) Since(start MemorySample) MemoryDelta {
	return MemoryDelta{
		Duration:  s.Timestamp.Sub(start.Timestamp),
		Allocated: s.TotalAlloc - start.TotalAlloc,
		Mallocs:   s.Mallocs - start.Mallocs,
		GCCycles:  s.NumGC - start.NumGC,
		GCPause:   time.Duration(s.PauseTotalNs - start.PauseTotalNs),
		HeapInuse: s.HeapInuse,
	}
}

// AllocationRate returns bytes allocated per second, or 0 for an empty interval.
func (d MemoryDelta) AllocationRate() float64 {
	if d.Duration <= 0 {
		return 0
	}
	return float64(d.Allocated) / d.Duration.Seconds()
}

// Report writes a short memory summary.
func (d MemoryDelta) Report(w io.Writer) {
	fmt.Fprintf(w, "MEMORY:\n")
	fmt.Fprintf(w, "  allocated=%s (%s/s), mallocs=%d\n",
		FormatBytes(d.Allocated), FormatBytes(uint64(d.AllocationRate())), d.Mallocs)
	fmt.Fprintf(w, "  gc cycles=%d, gc pause=%v, heap in use=%s\n",
		d.GCCycles, d.GCPause, FormatBytes(d.HeapInuse))
}
