package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the /metrics endpoint. The rolling latency
// windows in internal/latency stay separate: the response schema needs
// p95/stddev read back per request, which histograms cannot provide
// in-process.
var (
	TicksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradesim_feed_ticks_processed_total",
		Help: "Order book frames applied since start.",
	})

	FeedReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradesim_feed_reconnects_total",
		Help: "Feed reconnect attempts, including resyncs after gaps.",
	})

	EstimateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradesim_estimate_requests_total",
		Help: "Estimate requests served, labeled by outcome.",
	}, []string{"status"})

	BookSynced = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_book_synced",
		Help: "1 while a consistent book is published, else 0.",
	})
)
