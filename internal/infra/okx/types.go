package okx

import (
	"fmt"

	"github.com/Mehak-mstack26/trade-simulator/internal/domain"

	"github.com/shopspring/decimal"
)

// Message types on the L2 stream. The feed sends one full-depth snapshot
// after subscribing, then incremental updates with contiguous sequence
// numbers. An update entry with size "0" removes the level.
const (
	msgTypeSnapshot = "snapshot"
	msgTypeUpdate   = "update"
)

// wireMessage is one frame from the L2 order-book stream. The feed timestamp
// is decoded but not trusted for freshness; the book is stamped with local
// arrival time so upstream clock skew cannot mark a live book stale.
type wireMessage struct {
	Type      string      `json:"type"`
	Symbol    string      `json:"symbol"`
	Seq       uint64      `json:"seq"`
	Timestamp int64       `json:"timestamp"` // epoch millis, informational
	Bids      [][2]string `json:"bids"`      // [price, size]
	Asks      [][2]string `json:"asks"`
}

// subscribeRequest is the op frame sent after connecting.
type subscribeRequest struct {
	Op      string `json:"op"`
	Channel string `json:"channel"`
	Symbol  string `json:"symbol"`
}

func parseLevels(raw [][2]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, entry := range raw {
		price, err := decimal.NewFromString(entry[0])
		if err != nil {
			return nil, fmt.Errorf("bad price %q: %w", entry[0], err)
		}
		size, err := decimal.NewFromString(entry[1])
		if err != nil {
			return nil, fmt.Errorf("bad size %q: %w", entry[1], err)
		}
		if price.IsNegative() || size.IsNegative() {
			return nil, fmt.Errorf("negative price or size at %s", entry[0])
		}
		levels = append(levels, domain.PriceLevel{Price: price, Size: size})
	}
	return levels, nil
}
