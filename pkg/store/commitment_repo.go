package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/models"
)

// CommitmentRepo is the GORM-backed commitment store.
type CommitmentRepo struct {
	db *gorm.DB
}

// NewCommitmentRepo creates a new commitment repository.
func NewCommitmentRepo(db *gorm.DB) *CommitmentRepo {
	return &CommitmentRepo{db: db}
}

// Create persists a new commitment.
func (r *CommitmentRepo) Create(ctx context.Context, c *models.Commitment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create commitment: %w", err)
	}
	return nil
}

// GetByID loads one commitment.
func (r *CommitmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error) {
	var c models.Commitment
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("commitment")
		}
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	return &c, nil
}

// Update saves the full record. Mutations to one id arrive serialized from
// the service; whole-row saves keep a read from ever observing a
// partially-merged record.
func (r *CommitmentRepo) Update(ctx context.Context, c *models.Commitment) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("failed to update commitment: %w", err)
	}
	return nil
}

// Delete removes the record permanently.
func (r *CommitmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Commitment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete commitment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("commitment")
	}
	return nil
}

// Query lists commitments matching the filter, newest week first. The date
// range applies to week_start_date, so a commitment belongs to every range
// its week begins in.
func (r *CommitmentRepo) Query(ctx context.Context, q models.CommitmentQuery) ([]models.Commitment, error) {
	tx := r.db.WithContext(ctx).Model(&models.Commitment{})

	// A consultant restriction carrying both id and name matches either,
	// mirroring Scope.Allows: historical rows may predate the account.
	switch {
	case q.ConsultantID != uuid.Nil && q.ConsultantName != "":
		tx = tx.Where("consultant_id = ? OR consultant_name = ?", q.ConsultantID, q.ConsultantName)
	case q.ConsultantID != uuid.Nil:
		tx = tx.Where("consultant_id = ?", q.ConsultantID)
	case q.ConsultantName != "":
		tx = tx.Where("consultant_name = ?", q.ConsultantName)
	}
	if q.TeamName != "" {
		tx = tx.Where("team_name = ?", q.TeamName)
	}
	if !q.Start.IsZero() {
		tx = tx.Where("week_start_date >= ?", q.Start)
	}
	if !q.End.IsZero() {
		tx = tx.Where("week_start_date <= ?", q.End)
	}

	var out []models.Commitment
	if err := tx.Order("week_start_date DESC, created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query commitments: %w", err)
	}
	return out, nil
}
