package book

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

// midHistoryCap bounds the mid-price history kept for realized volatility.
const midHistoryCap = 100

// midHistory is a bounded ring of recent mid prices. Pushed only from the
// ingestion path; read occasionally for the volatility figure, so a short
// mutex is enough.
type midHistory struct {
	mu    sync.Mutex
	buf   []float64
	next  int
	count int
}

func newMidHistory(capacity int) *midHistory {
	return &midHistory{buf: make([]float64, capacity)}
}

func (h *midHistory) Push(mid float64) {
	if mid <= 0 {
		return
	}
	h.mu.Lock()
	h.buf[h.next] = mid
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
	h.mu.Unlock()
}

// ordered returns the history oldest-first.
func (h *midHistory) ordered() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, 0, h.count)
	start := h.next - h.count
	if start < 0 {
		start += len(h.buf)
	}
	for i := 0; i < h.count; i++ {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}

// RealizedVolatility is the standard deviation of log returns over the last
// `window` ticks. Per-tick, not annualized; zero until enough history exists.
func (h *midHistory) RealizedVolatility(window int) decimal.Decimal {
	mids := h.ordered()
	if window > 0 && len(mids) > window+1 {
		mids = mids[len(mids)-(window+1):]
	}
	if len(mids) < 3 {
		return decimal.Zero
	}

	returns := make([]float64, 0, len(mids)-1)
	for i := 1; i < len(mids); i++ {
		returns = append(returns, math.Log(mids[i]/mids[i-1]))
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	return decimal.NewFromFloat(math.Sqrt(sq / float64(len(returns))))
}
