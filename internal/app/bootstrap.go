package app

import (
	"log/slog"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/book"
	"github.com/Mehak-mstack26/trade-simulator/internal/infra"
	"github.com/Mehak-mstack26/trade-simulator/internal/infra/okx"
	"github.com/Mehak-mstack26/trade-simulator/internal/infra/storage"
	"github.com/Mehak-mstack26/trade-simulator/internal/latency"
	"github.com/Mehak-mstack26/trade-simulator/internal/server"
	"github.com/Mehak-mstack26/trade-simulator/internal/service"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config    *infra.Config
	Books     *book.Store
	Recorder  *latency.Recorder
	Worker    *okx.Worker
	Estimator *service.Estimator
	Storage   *storage.Storage
	Server    *server.Server
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize wires config, logging, storage, the book store, the feed worker
// and the HTTP server. The feed is not connected yet; main starts it.
func (b *Bootstrap) Initialize() error {
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("Audit storage initialized", slog.String("path", cfg.Storage.Path))
	}

	b.Books = book.NewStore(cfg.Feed.Symbol, cfg.Feed.MaxDepth)
	b.Recorder = latency.NewRecorder(cfg.Feed.LatencyWindowSize)
	b.Worker = okx.NewWorker(cfg.Feed.WSURL, cfg.Feed.Symbol, b.Books, b.Recorder)

	b.Estimator = service.NewEstimator(service.EstimatorConfig{
		ImpactCoefficient: cfg.Estimator.ImpactCoefficient,
		Staleness:         time.Duration(cfg.Feed.StalenessSec) * time.Second,
		ReportDepthLevels: cfg.Estimator.ReportDepthLevels,
	})

	var audit server.AuditSink
	if b.Storage != nil {
		audit = b.Storage
	}
	sim := server.NewSimulateHandler(b.Estimator, b.Books, b.Worker, b.Recorder, audit, logger)
	health := server.NewHealthHandler(b.Books, b.Worker, logger)

	b.Server = server.NewServer(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, sim, health, logger)

	slog.Info("Bootstrap complete",
		slog.String("symbol", cfg.Feed.Symbol),
		slog.Int("port", cfg.Server.Port))
	return nil
}
