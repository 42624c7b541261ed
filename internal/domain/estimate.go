package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostEstimate is the result of costing one hypothetical order against one
// snapshot. Constructed fresh per request and never mutated afterwards.
type CostEstimate struct {
	SlippagePct          decimal.Decimal // VWAP vs mid, percent
	FeesUSD              decimal.Decimal
	ImpactPct            decimal.Decimal // model impact, percent
	NetCostUSD           decimal.Decimal
	MakerTakerProportion decimal.Decimal // fraction executed as maker, 0..1

	LastPrice decimal.Decimal // mid price used for the estimate
	SpreadBps decimal.Decimal
	DepthUSD  decimal.Decimal // notional in the top reporting levels

	FilledNotionalUSD decimal.Decimal
	FilledBaseQty     decimal.Decimal
	DepthExhausted    bool // requested quantity exceeded visible depth

	BookSeq       uint64
	BookTimestamp time.Time
}

// EstimateRecord is the persisted audit row for one served estimate.
type EstimateRecord struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Exchange   string    `json:"exchange"`
	Asset      string    `json:"asset"`
	Side       string    `json:"side"`
	OrderType  string    `json:"order_type"`
	Quantity   string    `json:"quantity"`
	Volatility string    `json:"volatility"`
	FeeTier    string    `json:"fee_tier"`
	Slippage   string    `json:"slippage_pct"`
	Fees       string    `json:"fees_usd"`
	Impact     string    `json:"impact_pct"`
	NetCost    string    `json:"net_cost_usd"`
	BookSeq    uint64    `json:"book_seq"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
