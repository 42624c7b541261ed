// Package service contains the trade-cost model. Estimate is a pure function
// of an immutable snapshot and an order spec: no shared state, no blocking,
// byte-identical output for identical input.
package service

import (
	"math"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// DefaultImpactCoefficient scales the sqrt impact law. Calibration is
	// deliberately conservative; the shape (monotone in volatility and in
	// quantity relative to depth, zero at zero quantity) is what matters.
	DefaultImpactCoefficient = 0.3

	// DefaultStaleness is how old a snapshot may be before the book is
	// treated as unavailable even while the socket is nominally up.
	DefaultStaleness = 10 * time.Second

	// DefaultReportDepthLevels is how many levels per side feed the
	// orderBookDepth figure in responses.
	DefaultReportDepthLevels = 10
)

// EstimatorConfig tunes the cost model. Zero values take the defaults.
type EstimatorConfig struct {
	ImpactCoefficient float64
	Staleness         time.Duration
	ReportDepthLevels int
}

// Estimator answers "what would this order cost" against one snapshot.
type Estimator struct {
	impactCoef  decimal.Decimal
	staleness   time.Duration
	depthLevels int
}

// NewEstimator creates an estimator with the given configuration.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	if cfg.ImpactCoefficient <= 0 {
		cfg.ImpactCoefficient = DefaultImpactCoefficient
	}
	if cfg.Staleness <= 0 {
		cfg.Staleness = DefaultStaleness
	}
	if cfg.ReportDepthLevels <= 0 {
		cfg.ReportDepthLevels = DefaultReportDepthLevels
	}
	return &Estimator{
		impactCoef:  decimal.NewFromFloat(cfg.ImpactCoefficient),
		staleness:   cfg.Staleness,
		depthLevels: cfg.ReportDepthLevels,
	}
}

// Estimate costs spec against snap. Input validation happens before any book
// access; a nil, unsynchronized or stale snapshot yields ErrBookUnavailable,
// never a zero-filled result.
func (e *Estimator) Estimate(snap *domain.BookSnapshot, spec domain.OrderSpec, now time.Time) (*domain.CostEstimate, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, domain.ErrBookUnavailable
	}
	if now.Sub(snap.Timestamp) > e.staleness {
		return nil, domain.ErrBookUnavailable
	}

	mid := snap.MidPrice()
	if !mid.IsPositive() {
		return nil, domain.ErrBookUnavailable
	}

	levels := snap.Asks
	if spec.Side == domain.SideSell {
		levels = snap.Bids
	}

	baseQty := spec.Quantity.Div(mid)
	filled, notional, exhausted := walkBook(levels, baseQty)
	if !filled.IsPositive() {
		return nil, domain.ErrBookUnavailable
	}

	vwap := notional.Div(filled)
	slipFrac := vwap.Sub(mid).Div(mid)
	if spec.Side == domain.SideSell {
		slipFrac = mid.Sub(vwap).Div(mid)
	}
	if slipFrac.IsNegative() {
		slipFrac = decimal.Zero
	}

	sideDepth := snap.SideDepthBase(spec.Side)
	impactFrac := e.impactFraction(spec.Volatility, baseQty, sideDepth)

	// Market orders cross the spread immediately; the maker share is zero.
	// The proportion still flows through the blended rate so non-market
	// order types can reuse the fee path unchanged.
	makerProp := decimal.Zero
	rates := spec.FeeTier.Rates()
	blended := makerProp.Mul(rates.Maker).
		Add(decimal.NewFromInt(1).Sub(makerProp).Mul(rates.Taker))
	fees := notional.Mul(blended)

	netCost := notional.Mul(slipFrac.Add(impactFrac)).Add(fees)

	hundred := decimal.NewFromInt(100)
	return &domain.CostEstimate{
		SlippagePct:          slipFrac.Mul(hundred),
		FeesUSD:              fees,
		ImpactPct:            impactFrac.Mul(hundred),
		NetCostUSD:           netCost,
		MakerTakerProportion: makerProp,
		LastPrice:            mid,
		SpreadBps:            snap.SpreadBps(),
		DepthUSD:             snap.DepthUSD(e.depthLevels),
		FilledNotionalUSD:    notional,
		FilledBaseQty:        filled,
		DepthExhausted:       exhausted,
		BookSeq:              snap.Seq,
		BookTimestamp:        snap.Timestamp,
	}, nil
}

// walkBook consumes levels best to worst until qty is filled or depth runs
// out. Returns filled base quantity, filled notional, and whether the walk
// exhausted visible depth.
func walkBook(levels []domain.PriceLevel, qty decimal.Decimal) (filled, notional decimal.Decimal, exhausted bool) {
	remaining := qty
	for _, lvl := range levels {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, lvl.Size)
		notional = notional.Add(take.Mul(lvl.Price))
		filled = filled.Add(take)
		remaining = remaining.Sub(take)
	}
	return filled, notional, remaining.IsPositive()
}

// impactFraction implements the square-root impact law
//
//	impact = k * volatility * sqrt(min(qty, depth) / depth)
//
// as a fraction of notional. Saturates once the order consumes all visible
// depth, so oversized requests get the deterministic maximum-impact case
// rather than an error.
func (e *Estimator) impactFraction(vol, baseQty, sideDepth decimal.Decimal) decimal.Decimal {
	if !sideDepth.IsPositive() || !baseQty.IsPositive() {
		return decimal.Zero
	}
	ratio, _ := decimal.Min(baseQty, sideDepth).Div(sideDepth).Float64()
	return e.impactCoef.Mul(vol).Mul(decimal.NewFromFloat(math.Sqrt(ratio)))
}
