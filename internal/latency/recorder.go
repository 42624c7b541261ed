// Package latency keeps bounded rolling windows of processing durations and
// derives summary statistics from them. Stats reads copy the window under the
// same short lock the recorder uses, so readers may observe a window that is
// an append or two behind — acceptable for statistics, never for the book.
package latency

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Kind names one instrumented duration stream.
type Kind string

const (
	KindTick    Kind = "tick-processing"
	KindRequest Kind = "request-processing"
)

// DefaultWindowSize bounds each rolling window; oldest entries are evicted.
const DefaultWindowSize = 1000

// Stats is a read-only summary over one window at one instant.
type Stats struct {
	AvgMs    float64 `json:"avg_ms"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	P95Ms    float64 `json:"p95_ms"`
	Count    int     `json:"count"`
	StdDevMs float64 `json:"std_dev_ms"`
}

// window is a fixed-capacity ring of millisecond durations.
type window struct {
	mu    sync.Mutex
	buf   []float64
	next  int
	count int
}

func (w *window) record(ms float64) {
	w.mu.Lock()
	w.buf[w.next] = ms
	w.next = (w.next + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
	w.mu.Unlock()
}

func (w *window) values() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]float64, w.count)
	copy(out, w.buf[:w.count])
	return out
}

// Recorder tracks one window per kind. Safe for concurrent writers (the feed
// tick path) and concurrent readers (request handlers).
type Recorder struct {
	windows map[Kind]*window
}

// NewRecorder creates a recorder with the given window capacity per kind.
// Capacities <= 0 use DefaultWindowSize.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Recorder{
		windows: map[Kind]*window{
			KindTick:    {buf: make([]float64, size)},
			KindRequest: {buf: make([]float64, size)},
		},
	}
}

// Record appends one duration to the kind's window. Unknown kinds are ignored.
func (r *Recorder) Record(kind Kind, d time.Duration) {
	w, ok := r.windows[kind]
	if !ok {
		return
	}
	w.record(float64(d.Nanoseconds()) / 1e6)
}

// Snapshot computes summary statistics over the kind's current window.
func (r *Recorder) Snapshot(kind Kind) Stats {
	w, ok := r.windows[kind]
	if !ok {
		return Stats{}
	}
	vals := w.values()
	if len(vals) == 0 {
		return Stats{}
	}

	var sum float64
	min, max := vals[0], vals[0]
	for _, v := range vals {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	avg := sum / float64(len(vals))

	var sq float64
	for _, v := range vals {
		d := v - avg
		sq += d * d
	}
	stdDev := math.Sqrt(sq / float64(len(vals)))

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	return Stats{
		AvgMs:    avg,
		MinMs:    min,
		MaxMs:    max,
		P95Ms:    percentile(sorted, 0.95),
		Count:    len(vals),
		StdDevMs: stdDev,
	}
}

// percentile uses nearest-rank on an already sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
