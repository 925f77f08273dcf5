// internal/database/receipts.go
package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/imi-royalty/internal/models"
)

// ReceiptStore persists claim receipts and serves the claim history API.
type ReceiptStore struct {
	db *gorm.DB
}

func NewReceiptStore(db *gorm.DB) *ReceiptStore {
	return &ReceiptStore{db: db}
}

func (s *ReceiptStore) RecordClaim(ctx context.Context, receipt *models.ClaimReceipt) error {
	if err := s.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return fmt.Errorf("failed to persist claim receipt: %w", err)
	}
	return nil
}

// ListByAccount returns an account's claim history, newest first.
func (s *ReceiptStore) ListByAccount(ctx context.Context, account string, limit int) ([]models.ClaimReceipt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var receipts []models.ClaimReceipt
	err := s.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at DESC").
		Limit(limit).
		Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claim receipts: %w", err)
	}
	return receipts, nil
}
