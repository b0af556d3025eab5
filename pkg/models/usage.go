package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageRecord is one logged invocation of the AI narrative service.
// Records are append-only; nothing in the application mutates or deletes
// them, and every reporting view is derived from the raw rows.
type UsageRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	UserName string    `json:"user_name"`
	Role     string    `json:"role"`

	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`

	// Date range the narrative request covered, stored verbatim.
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns an id when one was not provided.
func (r *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// UsageTotals holds the ledger-wide counters.
type UsageTotals struct {
	TotalCalls  int     `json:"total_calls"`
	TotalTokens int     `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
}

// UserUsage is the per-caller breakdown.
type UserUsage struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Role     string    `json:"role"`
	Calls    int       `json:"calls"`
	Tokens   int       `json:"tokens"`
	Cost     float64   `json:"cost"`
}

// DailyUsage is the per-day breakdown over the trailing 30 days.
type DailyUsage struct {
	Date   string  `json:"date"`
	Calls  int     `json:"calls"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// UsageSummary is the full cost-tracking view.
type UsageSummary struct {
	Summary     UsageTotals   `json:"summary"`
	ByUser      []UserUsage   `json:"by_user"`
	Daily       []DailyUsage  `json:"daily"`
	RecentCalls []UsageRecord `json:"recent_calls"`
}
