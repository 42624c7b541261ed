package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeMarket = "MARKET"
)

// OrderSpec describes the hypothetical order a caller wants costed.
// Quantity is USD notional; Volatility is a fraction (0.02 = 2%).
type OrderSpec struct {
	Side       string
	OrderType  string
	Quantity   decimal.Decimal
	Volatility decimal.Decimal
	FeeTier    FeeTier
}

// Validate checks the spec against the estimator's input contract.
func (o OrderSpec) Validate() error {
	if o.Side != SideBuy && o.Side != SideSell {
		return fmt.Errorf("%w: side must be BUY or SELL", ErrInvalidOrder)
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if !o.Volatility.IsPositive() {
		return fmt.Errorf("%w: volatility must be positive", ErrInvalidOrder)
	}
	if o.FeeTier < VIP0 || o.FeeTier > VIP4 {
		return fmt.Errorf("%w: fee tier out of range", ErrInvalidOrder)
	}
	return nil
}

// FeeTier is the exchange VIP level, 0 through 4.
type FeeTier int

const (
	VIP0 FeeTier = iota
	VIP1
	VIP2
	VIP3
	VIP4
)

// FeeRates is a maker/taker rate pair, expressed as fractions of notional.
type FeeRates struct {
	Maker decimal.Decimal
	Taker decimal.Decimal
}

// feeSchedule mirrors the OKX VIP schedule. Higher tiers pay less.
var feeSchedule = [5]FeeRates{
	{Maker: decimal.NewFromFloat(0.0008), Taker: decimal.NewFromFloat(0.0010)},
	{Maker: decimal.NewFromFloat(0.0007), Taker: decimal.NewFromFloat(0.0009)},
	{Maker: decimal.NewFromFloat(0.0005), Taker: decimal.NewFromFloat(0.0008)},
	{Maker: decimal.NewFromFloat(0.0003), Taker: decimal.NewFromFloat(0.0006)},
	{Maker: decimal.NewFromFloat(0.0001), Taker: decimal.NewFromFloat(0.0004)},
}

// Rates returns the maker/taker pair for the tier. Out-of-range tiers fall
// back to VIP0; callers validate before asking.
func (t FeeTier) Rates() FeeRates {
	if t < VIP0 || t > VIP4 {
		return feeSchedule[VIP0]
	}
	return feeSchedule[t]
}

func (t FeeTier) String() string {
	return fmt.Sprintf("VIP%d", int(t))
}

// ParseFeeTier parses the wire form "VIP0".."VIP4".
func ParseFeeTier(s string) (FeeTier, error) {
	for t := VIP0; t <= VIP4; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return VIP0, fmt.Errorf("%w: unknown fee tier %q", ErrInvalidOrder, s)
}
