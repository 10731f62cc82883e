// Package profiler times named operations, such as the stages of a transform
// pipeline, and reports min/avg/max per name.
package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Profiler collects operation timings. It is safe for concurrent use; batch
// runs share one Profiler across workers.
type Profiler struct {
	mu             sync.Mutex
	startTime      time.Time
	operationTimes map[string]*TimeTracker
	order          []string
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	name      string
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a snapshot of one TimeTracker.
type OperationStats struct {
	Name  string        `json:"name"  yaml:"name"`
	Count int64         `json:"count" yaml:"count"`
	Total time.Duration `json:"total" yaml:"total"`
	Min   time.Duration `json:"min"   yaml:"min"`
	Max   time.Duration `json:"max"   yaml:"max"`
	Avg   time.Duration `json:"avg"   yaml:"avg"`
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{
		startTime:      time.Now(),
		operationTimes: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes; it returns the elapsed time.
func (p *Profiler) StartOperation(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		duration := time.Since(start)
		p.recordOperationTime(name, duration)
		return duration
	}
}

// recordOperationTime records the completion time of an operation.
func (p *Profiler) recordOperationTime(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		p.operationTimes[name] = tracker
		p.order = append(p.order, name)
	}

	tracker.totalTime += duration
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Operations returns a snapshot of every tracked operation in first-seen order.
func (p *Profiler) Operations() []OperationStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make([]OperationStats, 0, len(p.order))
	for _, name := range p.order {
		t := p.operationTimes[name]
		stats = append(stats, OperationStats{
			Name:  t.name,
			Count: t.count,
			Total: t.totalTime,
			Min:   t.minTime,
			Max:   t.maxTime,
			Avg:   t.totalTime / time.Duration(t.count),
		})
	}

	return stats
}

// Report writes a timing table, slowest total first.
func (p *Profiler) Report(w io.Writer) {
	stats := p.Operations()
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Total > stats[j].Total
	})

	fmt.Fprintf(w, "OPERATION TIMINGS (uptime %v):\n", time.Since(p.startTime).Truncate(time.Millisecond))
	for _, s := range stats {
		fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
			s.Name,
			s.Avg.Truncate(time.Microsecond),
			s.Min.Truncate(time.Microsecond),
			s.Max.Truncate(time.Microsecond),
			s.Count)
	}
}

// FormatBytes formats byte counts in human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
