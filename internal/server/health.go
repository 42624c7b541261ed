package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/book"
)

// HealthHandler serves GET /api/health with feed and book status.
type HealthHandler struct {
	books  *book.Store
	feed   FeedStatus
	logger *slog.Logger
}

// NewHealthHandler wires the handler.
func NewHealthHandler(books *book.Store, feed FeedStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{books: books, feed: feed, logger: logger}
}

// HealthCheck reports feed state, synchronization, and book freshness.
// Degraded ingestion reports 503 so load balancers can rotate away.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"feedState": h.feed.State().String(),
		"synced":    h.books.Synced(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if snap, ok := h.books.Snapshot(); ok {
		body["bookSeq"] = snap.Seq
		body["bookAgeMs"] = time.Since(snap.Timestamp).Milliseconds()
		body["realizedVolatility"] = h.books.RealizedVolatility(0).InexactFloat64()
	}

	status := http.StatusOK
	if h.feed.Degraded() {
		body["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}
