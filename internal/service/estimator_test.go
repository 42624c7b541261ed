package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/domain"

	"github.com/shopspring/decimal"
)

func lvl(price, size string) domain.PriceLevel {
	return domain.PriceLevel{
		Price: decimal.RequireFromString(price),
		Size:  decimal.RequireFromString(size),
	}
}

// testSnapshot builds a book with best bid 100.00x10, best ask 100.02x10 and
// a second ask 100.05x50. Mid price is 100.01.
func testSnapshot(ts time.Time) *domain.BookSnapshot {
	return &domain.BookSnapshot{
		Symbol:    "BTC-USDT-SWAP",
		Bids:      []domain.PriceLevel{lvl("100.00", "10"), lvl("99.95", "20")},
		Asks:      []domain.PriceLevel{lvl("100.02", "10"), lvl("100.05", "50")},
		Seq:       42,
		Timestamp: ts,
	}
}

func buySpec(quantityUSD string) domain.OrderSpec {
	return domain.OrderSpec{
		Side:       domain.SideBuy,
		OrderType:  domain.OrderTypeMarket,
		Quantity:   decimal.RequireFromString(quantityUSD),
		Volatility: decimal.RequireFromString("0.02"),
		FeeTier:    domain.VIP0,
	}
}

func TestEstimate_BookWalkSlippage(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()

	// 1500.15 USD at mid 100.01 is exactly 15 base units: 10 fill at 100.02
	// and 5 at 100.05, so VWAP is 100.03.
	est, err := e.Estimate(testSnapshot(now), buySpec("1500.15"), now)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if !est.FilledBaseQty.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected 15 base units filled, got %v", est.FilledBaseQty)
	}
	vwap := est.FilledNotionalUSD.Div(est.FilledBaseQty)
	if !vwap.Equal(decimal.RequireFromString("100.03")) {
		t.Errorf("expected VWAP 100.03, got %v", vwap)
	}

	// (100.03 - 100.01) / 100.01 as a percentage, about 0.02%.
	slip := est.SlippagePct.InexactFloat64()
	if math.Abs(slip-0.0199980) > 1e-4 {
		t.Errorf("expected slippage near 0.02%%, got %v", slip)
	}
	if est.DepthExhausted {
		t.Error("order fits within visible depth")
	}
}

func TestEstimate_SellSideWalksBids(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()

	spec := buySpec("2500")
	spec.Side = domain.SideSell
	est, err := e.Estimate(testSnapshot(now), spec, now)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	// 2500 USD at mid 100.01 is just under 25 base units: the 10-unit best
	// bid is consumed and the 99.95 level is touched, so VWAP < mid.
	vwap := est.FilledNotionalUSD.Div(est.FilledBaseQty)
	if !vwap.LessThan(decimal.RequireFromString("100.01")) {
		t.Errorf("sell VWAP should sit below mid, got %v", vwap)
	}
	if !est.SlippagePct.IsPositive() {
		t.Errorf("expected positive sell slippage, got %v", est.SlippagePct)
	}
}

func TestEstimate_SlippageMonotoneInQuantity(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()
	snap := testSnapshot(now)

	prevSlip := decimal.NewFromInt(-1)
	prevImpact := decimal.NewFromInt(-1)
	for _, qty := range []string{"100", "1000", "3000", "5000"} {
		est, err := e.Estimate(snap, buySpec(qty), now)
		if err != nil {
			t.Fatalf("Estimate(%s) failed: %v", qty, err)
		}
		if est.SlippagePct.LessThan(prevSlip) {
			t.Errorf("slippage decreased at qty %s: %v < %v", qty, est.SlippagePct, prevSlip)
		}
		if est.ImpactPct.LessThan(prevImpact) {
			t.Errorf("impact decreased at qty %s: %v < %v", qty, est.ImpactPct, prevImpact)
		}
		prevSlip, prevImpact = est.SlippagePct, est.ImpactPct
	}
}

func TestEstimate_FeesDecreaseWithTier(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()
	snap := testSnapshot(now)

	prev := decimal.NewFromInt(1 << 30)
	for tier := domain.VIP0; tier <= domain.VIP4; tier++ {
		spec := buySpec("1000")
		spec.FeeTier = tier
		est, err := e.Estimate(snap, spec, now)
		if err != nil {
			t.Fatalf("Estimate(%v) failed: %v", tier, err)
		}
		if est.FeesUSD.GreaterThan(prev) {
			t.Errorf("fees rose from %v to %v at %v", prev, est.FeesUSD, tier)
		}
		prev = est.FeesUSD
	}
}

func TestEstimate_MarketOrderIsAllTaker(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()

	est, err := e.Estimate(testSnapshot(now), buySpec("1000"), now)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if !est.MakerTakerProportion.IsZero() {
		t.Errorf("market order maker proportion must be 0, got %v", est.MakerTakerProportion)
	}

	// Fees = filled notional * taker rate at VIP0.
	want := est.FilledNotionalUSD.Mul(decimal.RequireFromString("0.0010"))
	if !est.FeesUSD.Equal(want) {
		t.Errorf("expected fees %v, got %v", want, est.FeesUSD)
	}
}

func TestEstimate_NetCostCoversFees(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()

	est, err := e.Estimate(testSnapshot(now), buySpec("1500.15"), now)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if est.NetCostUSD.LessThan(est.FeesUSD) {
		t.Errorf("net cost %v below fees %v", est.NetCostUSD, est.FeesUSD)
	}
}

func TestEstimate_DepthExhaustionSaturatesImpact(t *testing.T) {
	e := NewEstimator(EstimatorConfig{ImpactCoefficient: 0.3})
	now := time.Now()
	snap := testSnapshot(now)

	// Visible ask depth is 60 base units; ask for far more.
	est, err := e.Estimate(snap, buySpec("1000000"), now)
	if err != nil {
		t.Fatalf("oversized order must not error: %v", err)
	}
	if !est.DepthExhausted {
		t.Error("expected depth exhaustion flag")
	}

	// Impact saturates at coefficient * volatility once qty >= depth.
	want := 0.3 * 0.02 * 100
	if math.Abs(est.ImpactPct.InexactFloat64()-want) > 1e-9 {
		t.Errorf("expected saturated impact %v%%, got %v", want, est.ImpactPct)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()
	snap := testSnapshot(now)
	spec := buySpec("1500.15")

	a, err := e.Estimate(snap, spec, now)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	b, err := e.Estimate(snap, spec, now)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if !a.NetCostUSD.Equal(b.NetCostUSD) || !a.SlippagePct.Equal(b.SlippagePct) || !a.FeesUSD.Equal(b.FeesUSD) {
		t.Errorf("identical inputs produced different estimates: %+v vs %+v", a, b)
	}
}

func TestEstimate_InvalidOrders(t *testing.T) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()
	snap := testSnapshot(now)

	cases := []struct {
		name   string
		mutate func(*domain.OrderSpec)
	}{
		{"zero quantity", func(s *domain.OrderSpec) { s.Quantity = decimal.Zero }},
		{"negative quantity", func(s *domain.OrderSpec) { s.Quantity = decimal.NewFromInt(-5) }},
		{"zero volatility", func(s *domain.OrderSpec) { s.Volatility = decimal.Zero }},
		{"bad side", func(s *domain.OrderSpec) { s.Side = "HOLD" }},
		{"fee tier out of range", func(s *domain.OrderSpec) { s.FeeTier = domain.FeeTier(9) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := buySpec("1000")
			tc.mutate(&spec)
			if _, err := e.Estimate(snap, spec, now); !errors.Is(err, domain.ErrInvalidOrder) {
				t.Errorf("expected ErrInvalidOrder, got %v", err)
			}
		})
	}
}

func TestEstimate_UnavailableBook(t *testing.T) {
	e := NewEstimator(EstimatorConfig{Staleness: 10 * time.Second})
	now := time.Now()

	if _, err := e.Estimate(nil, buySpec("1000"), now); !errors.Is(err, domain.ErrBookUnavailable) {
		t.Errorf("nil snapshot: expected ErrBookUnavailable, got %v", err)
	}

	stale := testSnapshot(now.Add(-time.Minute))
	if _, err := e.Estimate(stale, buySpec("1000"), now); !errors.Is(err, domain.ErrBookUnavailable) {
		t.Errorf("stale snapshot: expected ErrBookUnavailable, got %v", err)
	}

	empty := &domain.BookSnapshot{Symbol: "X", Timestamp: now}
	if _, err := e.Estimate(empty, buySpec("1000"), now); !errors.Is(err, domain.ErrBookUnavailable) {
		t.Errorf("empty book: expected ErrBookUnavailable, got %v", err)
	}
}

func BenchmarkEstimate(b *testing.B) {
	e := NewEstimator(EstimatorConfig{})
	now := time.Now()

	bids := make([]domain.PriceLevel, 0, 400)
	asks := make([]domain.PriceLevel, 0, 400)
	for i := 0; i < 400; i++ {
		bids = append(bids, domain.PriceLevel{
			Price: decimal.NewFromFloat(100.00 - float64(i)*0.01),
			Size:  decimal.NewFromInt(2),
		})
		asks = append(asks, domain.PriceLevel{
			Price: decimal.NewFromFloat(100.02 + float64(i)*0.01),
			Size:  decimal.NewFromInt(2),
		})
	}
	snap := &domain.BookSnapshot{Symbol: "X", Bids: bids, Asks: asks, Seq: 1, Timestamp: now}
	spec := buySpec("25000")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := e.Estimate(snap, spec, now); err != nil {
			b.Fatalf("Estimate failed: %v", err)
		}
	}
}
