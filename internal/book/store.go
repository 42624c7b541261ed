// Package book holds the live L2 order book for a single symbol.
//
// The feed connection manager is the only writer. Every apply builds a fresh
// immutable state and publishes it with one atomic pointer store, so any
// number of concurrent readers pay one atomic load and never contend with
// the ingestion hotpath.
package book

import (
	"sort"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/domain"

	"github.com/shopspring/decimal"
	"sync/atomic"
)

const DefaultMaxDepth = 400

// bookState is one published generation of the book. Never mutated after
// the pointer store.
type bookState struct {
	bids      []domain.PriceLevel // sorted descending
	asks      []domain.PriceLevel // sorted ascending
	seq       uint64
	updatedAt time.Time
	synced    bool
}

// Store owns the current book state for one symbol.
type Store struct {
	symbol   string
	maxDepth int
	cur      atomic.Pointer[bookState]
	history  *midHistory
}

// NewStore creates an unsynchronized store. maxDepth bounds the levels kept
// per side; values <= 0 use DefaultMaxDepth.
func NewStore(symbol string, maxDepth int) *Store {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	s := &Store{
		symbol:   symbol,
		maxDepth: maxDepth,
		history:  newMidHistory(midHistoryCap),
	}
	s.cur.Store(&bookState{})
	return s
}

// ReplaceAll installs a full-depth snapshot and marks the store synchronized.
// Called by the connection manager when the feed delivers the initial (or a
// post-resync) snapshot.
func (s *Store) ReplaceAll(seq uint64, ts time.Time, bids, asks []domain.PriceLevel) error {
	nb := normalizeSide(bids, true, s.maxDepth)
	na := normalizeSide(asks, false, s.maxDepth)
	if crossed(nb, na) {
		return domain.ErrCrossedBook
	}
	st := &bookState{bids: nb, asks: na, seq: seq, updatedAt: ts, synced: true}
	s.cur.Store(st)
	s.recordMid(st)
	return nil
}

// ApplyUpdate applies one incremental update. The update's sequence number
// must be the immediate successor of the current one; anything else returns
// ErrSequenceGap and leaves the published state untouched. A batch that would
// cross the book returns ErrCrossedBook, also without publishing.
func (s *Store) ApplyUpdate(u domain.BookUpdate) error {
	cur := s.cur.Load()
	if !cur.synced {
		return domain.ErrBookUnavailable
	}
	if u.Seq != cur.seq+1 {
		return domain.ErrSequenceGap
	}

	bids := applyChanges(cur.bids, u.Bids, true)
	asks := applyChanges(cur.asks, u.Asks, false)
	if len(bids) > s.maxDepth {
		bids = bids[:s.maxDepth]
	}
	if len(asks) > s.maxDepth {
		asks = asks[:s.maxDepth]
	}
	if crossed(bids, asks) {
		return domain.ErrCrossedBook
	}

	st := &bookState{bids: bids, asks: asks, seq: u.Seq, updatedAt: u.Timestamp, synced: true}
	s.cur.Store(st)
	s.recordMid(st)
	return nil
}

// MarkUnsynced discards the in-memory book. Estimates fail with
// ErrBookUnavailable until a fresh snapshot is applied.
func (s *Store) MarkUnsynced() {
	s.cur.Store(&bookState{})
}

// Snapshot returns the current immutable view, or false if the store has
// never synchronized or has been invalidated by a gap.
func (s *Store) Snapshot() (*domain.BookSnapshot, bool) {
	st := s.cur.Load()
	if !st.synced {
		return nil, false
	}
	return &domain.BookSnapshot{
		Symbol:    s.symbol,
		Bids:      st.bids,
		Asks:      st.asks,
		Seq:       st.seq,
		Timestamp: st.updatedAt,
	}, true
}

// Seq returns the last applied sequence number.
func (s *Store) Seq() uint64 {
	return s.cur.Load().seq
}

// Synced reports whether a consistent book is currently published.
func (s *Store) Synced() bool {
	return s.cur.Load().synced
}

// RealizedVolatility returns the short-term realized volatility derived from
// the recent mid-price history. See midHistory.
func (s *Store) RealizedVolatility(window int) decimal.Decimal {
	return s.history.RealizedVolatility(window)
}

func (s *Store) recordMid(st *bookState) {
	if len(st.bids) == 0 || len(st.asks) == 0 {
		return
	}
	mid, _ := st.bids[0].Price.Add(st.asks[0].Price).Div(decimal.NewFromInt(2)).Float64()
	s.history.Push(mid)
}

// normalizeSide sorts, deduplicates and caps one side of a full snapshot.
// Zero-size levels are dropped rather than retained. Entries sharing a price
// collapse to the last one in the frame, matching upsert semantics where a
// repeated price is a replacement.
func normalizeSide(levels []domain.PriceLevel, desc bool, maxDepth int) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		if lvl.Size.IsPositive() {
			out = append(out, lvl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	dedup := out[:0]
	for _, lvl := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Price.Equal(lvl.Price) {
			dedup[n-1] = lvl
			continue
		}
		dedup = append(dedup, lvl)
	}
	out = dedup
	if len(out) > maxDepth {
		out = out[:maxDepth]
	}
	return out
}

// applyChanges copies one side and applies upserts/removals, keeping order.
func applyChanges(levels, changes []domain.PriceLevel, desc bool) []domain.PriceLevel {
	out := make([]domain.PriceLevel, len(levels), len(levels)+len(changes))
	copy(out, levels)
	for _, ch := range changes {
		out = upsert(out, ch, desc)
	}
	return out
}

func upsert(levels []domain.PriceLevel, ch domain.PriceLevel, desc bool) []domain.PriceLevel {
	idx := sort.Search(len(levels), func(i int) bool {
		if desc {
			return levels[i].Price.LessThanOrEqual(ch.Price)
		}
		return levels[i].Price.GreaterThanOrEqual(ch.Price)
	})
	exists := idx < len(levels) && levels[idx].Price.Equal(ch.Price)

	switch {
	case !ch.Size.IsPositive():
		if exists {
			levels = append(levels[:idx], levels[idx+1:]...)
		}
	case exists:
		levels[idx].Size = ch.Size
	default:
		levels = append(levels, domain.PriceLevel{})
		copy(levels[idx+1:], levels[idx:])
		levels[idx] = ch
	}
	return levels
}

func crossed(bids, asks []domain.PriceLevel) bool {
	if len(bids) == 0 || len(asks) == 0 {
		return false
	}
	return bids[0].Price.GreaterThanOrEqual(asks[0].Price)
}
