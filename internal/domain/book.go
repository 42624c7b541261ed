package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel is a single price/size entry on one side of the book.
// A size of zero in an update means the level is removed.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// BookUpdate is one incremental L2 message after the initial snapshot.
// Seq must be the immediate successor of the book's current sequence.
// Timestamp is the local arrival time of the frame; freshness checks never
// depend on the feed's clock.
type BookUpdate struct {
	Seq       uint64
	Timestamp time.Time
	Bids      []PriceLevel
	Asks      []PriceLevel
}

// BookSnapshot is an immutable point-in-time view of the order book.
// Bids are sorted descending, asks ascending. The slices are shared with
// the published store state and must never be mutated.
type BookSnapshot struct {
	Symbol    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Seq       uint64
	Timestamp time.Time
}

// BestBid returns the highest bid level.
func (s *BookSnapshot) BestBid() (PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask level.
func (s *BookSnapshot) BestAsk() (PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

// MidPrice returns (best bid + best ask) / 2, or zero if either side is empty.
func (s *BookSnapshot) MidPrice() decimal.Decimal {
	bid, okB := s.BestBid()
	ask, okA := s.BestAsk()
	if !okB || !okA {
		return decimal.Zero
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2))
}

// SpreadBps returns the bid/ask spread in basis points of the mid price.
func (s *BookSnapshot) SpreadBps() decimal.Decimal {
	bid, okB := s.BestBid()
	ask, okA := s.BestAsk()
	if !okB || !okA {
		return decimal.Zero
	}
	mid := s.MidPrice()
	if mid.IsZero() {
		return decimal.Zero
	}
	return ask.Price.Sub(bid.Price).Abs().Div(mid).Mul(decimal.NewFromInt(10000))
}

// DepthUSD returns the notional value resting in the top n levels of both sides.
func (s *BookSnapshot) DepthUSD(n int) decimal.Decimal {
	total := decimal.Zero
	for i, lvl := range s.Asks {
		if i >= n {
			break
		}
		total = total.Add(lvl.Price.Mul(lvl.Size))
	}
	for i, lvl := range s.Bids {
		if i >= n {
			break
		}
		total = total.Add(lvl.Price.Mul(lvl.Size))
	}
	return total
}

// SideDepthBase returns the total base-asset quantity visible on one side.
func (s *BookSnapshot) SideDepthBase(side string) decimal.Decimal {
	levels := s.Asks
	if side == SideSell {
		levels = s.Bids
	}
	total := decimal.Zero
	for _, lvl := range levels {
		total = total.Add(lvl.Size)
	}
	return total
}
