// Package storage persists an audit trail of served estimates. Order books
// themselves are never persisted.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mehak-mstack26/trade-simulator/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite-backed audit log.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the database at path.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		path = filepath.Join("data", "tradesim.db")
	}

	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure-Go SQLite, no cgo.
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.EstimateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// SaveEstimate appends one audit record.
func (s *Storage) SaveEstimate(rec *domain.EstimateRecord) error {
	return s.db.Create(rec).Error
}

// RecentEstimates returns the n most recent records, newest first.
func (s *Storage) RecentEstimates(n int) ([]domain.EstimateRecord, error) {
	var recs []domain.EstimateRecord
	err := s.db.Order("created_at DESC").Limit(n).Find(&recs).Error
	return recs, err
}

// Count returns the total number of audit records.
func (s *Storage) Count() (int64, error) {
	var count int64
	err := s.db.Model(&domain.EstimateRecord{}).Count(&count).Error
	return count, err
}
