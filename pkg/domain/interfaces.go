package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edconsult/commitdb/pkg/models"
)

// CommitmentRepository defines data access operations for commitments.
// The storage engine is a collaborator; every aggregate must be reproducible
// from the rows Query returns.
type CommitmentRepository interface {
	Create(ctx context.Context, c *models.Commitment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error)
	Update(ctx context.Context, c *models.Commitment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, q models.CommitmentQuery) ([]models.Commitment, error)
}

// UsageRepository defines the append-only AI usage ledger. There is no
// update or delete on purpose.
type UsageRepository interface {
	Append(ctx context.Context, r *models.UsageRecord) error
	All(ctx context.Context) ([]models.UsageRecord, error)
}

// UserRepository defines account lookups used by auth and the reminder job.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
}

// CacheRepository defines caching operations.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Close() error
}

// ReminderSink receives generated reminder events. Delivery is out of scope;
// the email service is one implementation.
type ReminderSink interface {
	SendCommitmentReminder(toEmail, toName string, weekNumber, year int) error
}
