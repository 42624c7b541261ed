package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/app"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// Pprof server, localhost only.
	go func() {
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Worker.Connect(ctx); err != nil {
		slog.Error("Failed to start feed worker", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Worker.Disconnect()
	slog.InfoContext(ctx, "Feed worker started",
		slog.String("symbol", bootstrap.Config.Feed.Symbol))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- bootstrap.Server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down gracefully...")
	case err := <-serverErr:
		slog.Error("HTTP server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bootstrap.Server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", slog.Any("error", err))
	}
}
