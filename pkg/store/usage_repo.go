package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/edconsult/commitdb/pkg/models"
)

// UsageRepo is the append-only AI usage ledger. It deliberately exposes no
// update or delete: every reporting view is re-derived from the raw rows.
type UsageRepo struct {
	db *gorm.DB
}

// NewUsageRepo creates a new usage ledger repository.
func NewUsageRepo(db *gorm.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

// Append writes one immutable ledger entry.
func (r *UsageRepo) Append(ctx context.Context, record *models.UsageRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// All returns the full ledger, most recent first.
func (r *UsageRepo) All(ctx context.Context) ([]models.UsageRecord, error) {
	var out []models.UsageRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	return out, nil
}
