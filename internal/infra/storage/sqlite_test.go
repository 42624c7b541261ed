package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Mehak-mstack26/trade-simulator/internal/domain"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	return s
}

func record(seq uint64) *domain.EstimateRecord {
	return &domain.EstimateRecord{
		ID:         uuid.NewString(),
		Exchange:   "OKX",
		Asset:      "BTC-USDT-SWAP",
		Side:       domain.SideBuy,
		OrderType:  domain.OrderTypeMarket,
		Quantity:   "100",
		Volatility: "0.02",
		FeeTier:    "VIP0",
		Slippage:   "0.0199",
		Fees:       "0.1",
		Impact:     "0.05",
		NetCost:    "0.35",
		BookSeq:    seq,
	}
}

func TestStorage_SaveAndLoad(t *testing.T) {
	s := setupTestDB(t)

	rec := record(42)
	if err := s.SaveEstimate(rec); err != nil {
		t.Fatalf("SaveEstimate failed: %v", err)
	}

	got, err := s.RecentEstimates(10)
	if err != nil {
		t.Fatalf("RecentEstimates failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].ID != rec.ID || got[0].BookSeq != 42 || got[0].NetCost != "0.35" {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on insert")
	}
}

func TestStorage_RecentEstimatesOrderAndLimit(t *testing.T) {
	s := setupTestDB(t)

	for i := 0; i < 5; i++ {
		rec := record(uint64(i))
		rec.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if err := s.SaveEstimate(rec); err != nil {
			t.Fatalf("SaveEstimate failed: %v", err)
		}
	}

	got, err := s.RecentEstimates(3)
	if err != nil {
		t.Fatalf("RecentEstimates failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].BookSeq != 4 {
		t.Errorf("expected newest record first, got seq %d", got[0].BookSeq)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}
}

func TestNewStorage_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "audit.db")
	s, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	if err := s.SaveEstimate(record(1)); err != nil {
		t.Fatalf("SaveEstimate failed: %v", err)
	}
}

func TestStorage_DuplicateIDRejected(t *testing.T) {
	s := setupTestDB(t)

	rec := record(1)
	if err := s.SaveEstimate(rec); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	dup := record(2)
	dup.ID = rec.ID
	if err := s.SaveEstimate(dup); err == nil {
		t.Error("expected primary key violation for duplicate ID")
	}
}
