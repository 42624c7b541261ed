package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/book"
	"github.com/Mehak-mstack26/trade-simulator/internal/domain"
	"github.com/Mehak-mstack26/trade-simulator/internal/infra"
	"github.com/Mehak-mstack26/trade-simulator/internal/infra/okx"
	"github.com/Mehak-mstack26/trade-simulator/internal/latency"
	"github.com/Mehak-mstack26/trade-simulator/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeedStatus is what the handlers need to know about the ingestion side.
type FeedStatus interface {
	State() okx.State
	Degraded() bool
}

// AuditSink persists served estimates. A nil sink disables auditing.
type AuditSink interface {
	SaveEstimate(*domain.EstimateRecord) error
}

// simulateRequest is the wire form of an estimation request. Numeric fields
// arrive as strings and are parsed here, before any book access.
type simulateRequest struct {
	Exchange   string `json:"exchange"`
	Asset      string `json:"asset"`
	Side       string `json:"side"` // optional, defaults to buy
	OrderType  string `json:"orderType"`
	Quantity   string `json:"quantity"`
	Volatility string `json:"volatility"`
	FeeTier    string `json:"feeTier"`
}

// simulateResponse mirrors the published response contract field for field.
type simulateResponse struct {
	ExpectedSlippage                 float64       `json:"expectedSlippage"`
	ExpectedFees                     float64       `json:"expectedFees"`
	ExpectedMarketImpact             float64       `json:"expectedMarketImpact"`
	NetCost                          float64       `json:"netCost"`
	MakerTakerProportion             float64       `json:"makerTakerProportion"`
	InternalLatency                  float64       `json:"internalLatency"`
	LastPrice                        float64       `json:"lastPrice"`
	SpreadBps                        float64       `json:"spreadBps"`
	OrderBookDepth                   float64       `json:"orderBookDepth"`
	MarketDataTimestamp              *string       `json:"marketDataTimestamp"`
	SimulationExecutionTimeMs        float64       `json:"simulationExecutionTimeMs"`
	BackendRequestProcessingTimeMs   float64       `json:"backendRequestProcessingTimeMs"`
	MarketDataProcessingLatencyStats latency.Stats `json:"marketDataProcessingLatencyStats"`
}

// SimulateHandler serves POST /api/simulate.
type SimulateHandler struct {
	estimator *service.Estimator
	books     *book.Store
	feed      FeedStatus
	rec       *latency.Recorder
	audit     AuditSink
	logger    *slog.Logger
}

// NewSimulateHandler wires the handler. audit may be nil.
func NewSimulateHandler(est *service.Estimator, books *book.Store, feed FeedStatus, rec *latency.Recorder, audit AuditSink, logger *slog.Logger) *SimulateHandler {
	return &SimulateHandler{
		estimator: est,
		books:     books,
		feed:      feed,
		rec:       rec,
		audit:     audit,
		logger:    logger.With(slog.String("handler", "simulate")),
	}
}

// Simulate validates the request, estimates against the latest snapshot and
// assembles the response. Validation failures reject before any book access;
// an unsynchronized or stale book maps to 503, never to a zero-filled body.
func (h *SimulateHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.rec.Record(latency.KindRequest, time.Since(start))
	}()

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infra.EstimateRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	spec, err := parseOrderSpec(req)
	if err != nil {
		infra.EstimateRequests.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.feed.Degraded() {
		infra.EstimateRequests.WithLabelValues("unavailable").Inc()
		writeError(w, http.StatusServiceUnavailable, domain.ErrBookUnavailable.Error())
		return
	}

	snap, _ := h.books.Snapshot()

	simStart := time.Now()
	est, err := h.estimator.Estimate(snap, spec, simStart)
	simElapsed := time.Since(simStart)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOrder):
			infra.EstimateRequests.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrBookUnavailable):
			infra.EstimateRequests.WithLabelValues("unavailable").Inc()
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			infra.EstimateRequests.WithLabelValues("error").Inc()
			h.logger.Error("estimate failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	tickStats := h.rec.Snapshot(latency.KindTick)
	ts := strconv.FormatInt(est.BookTimestamp.UnixMilli(), 10)

	resp := simulateResponse{
		ExpectedSlippage:                 est.SlippagePct.InexactFloat64(),
		ExpectedFees:                     est.FeesUSD.InexactFloat64(),
		ExpectedMarketImpact:             est.ImpactPct.InexactFloat64(),
		NetCost:                          est.NetCostUSD.InexactFloat64(),
		MakerTakerProportion:             est.MakerTakerProportion.InexactFloat64(),
		InternalLatency:                  tickStats.AvgMs,
		LastPrice:                        est.LastPrice.InexactFloat64(),
		SpreadBps:                        est.SpreadBps.InexactFloat64(),
		OrderBookDepth:                   est.DepthUSD.InexactFloat64(),
		MarketDataTimestamp:              &ts,
		SimulationExecutionTimeMs:        float64(simElapsed.Nanoseconds()) / 1e6,
		BackendRequestProcessingTimeMs:   float64(time.Since(start).Nanoseconds()) / 1e6,
		MarketDataProcessingLatencyStats: tickStats,
	}

	infra.EstimateRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, resp)

	if h.audit != nil {
		go h.saveAudit(req, spec, est)
	}
}

// saveAudit writes the audit record after the response is sent. Failures are
// logged, never surfaced.
func (h *SimulateHandler) saveAudit(req simulateRequest, spec domain.OrderSpec, est *domain.CostEstimate) {
	rec := &domain.EstimateRecord{
		ID:         uuid.NewString(),
		Exchange:   req.Exchange,
		Asset:      req.Asset,
		Side:       spec.Side,
		OrderType:  spec.OrderType,
		Quantity:   spec.Quantity.String(),
		Volatility: spec.Volatility.String(),
		FeeTier:    spec.FeeTier.String(),
		Slippage:   est.SlippagePct.String(),
		Fees:       est.FeesUSD.String(),
		Impact:     est.ImpactPct.String(),
		NetCost:    est.NetCostUSD.String(),
		BookSeq:    est.BookSeq,
		CreatedAt:  time.Now(),
	}
	if err := h.audit.SaveEstimate(rec); err != nil {
		h.logger.Warn("audit write failed", slog.Any("error", err))
	}
}

// parseOrderSpec converts and validates wire fields. All failures carry
// ErrInvalidOrder so callers get a 400.
func parseOrderSpec(req simulateRequest) (domain.OrderSpec, error) {
	var spec domain.OrderSpec

	if !strings.EqualFold(req.OrderType, "market") {
		return spec, errors.New("invalid order: only market orders are supported")
	}
	spec.OrderType = domain.OrderTypeMarket

	switch strings.ToLower(req.Side) {
	case "", "buy":
		spec.Side = domain.SideBuy
	case "sell":
		spec.Side = domain.SideSell
	default:
		return spec, errors.New("invalid order: side must be buy or sell")
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return spec, errors.New("invalid order: quantity is not numeric")
	}
	spec.Quantity = qty

	vol, err := decimal.NewFromString(req.Volatility)
	if err != nil {
		return spec, errors.New("invalid order: volatility is not numeric")
	}
	spec.Volatility = vol

	tier, err := domain.ParseFeeTier(req.FeeTier)
	if err != nil {
		return spec, err
	}
	spec.FeeTier = tier

	return spec, spec.Validate()
}
