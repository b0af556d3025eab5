// Package usage keeps the append-only cost ledger for AI narrative calls.
// Every reporting view is re-derived from the raw records on read; there are
// no running counters that could drift from the ledger.
package usage

import (
	"context"
	"time"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/week"
)

// recentLimit caps the recent-calls view.
const recentLimit = 20

// dailyWindow is the trailing window of the daily view.
const dailyWindow = 30 * 24 * time.Hour

// Service records and summarizes AI usage.
type Service struct {
	repo domain.UsageRepository
	// rate is the injected cost per token. It is configuration, not
	// business logic; the ledger stores the derived cost verbatim.
	rate float64
	now  func() time.Time
}

// NewService creates a new usage ledger service.
func NewService(repo domain.UsageRepository, perTokenRate float64) *Service {
	return &Service{
		repo: repo,
		rate: perTokenRate,
		now:  time.Now,
	}
}

// Record appends one immutable ledger entry for a narrative call that
// consumed tokens. Cost is derived from the token total at the configured
// rate at write time.
func (s *Service) Record(ctx context.Context, actor models.Actor, promptTokens, completionTokens int, dr week.DateRange) (*models.UsageRecord, error) {
	total := promptTokens + completionTokens
	record := &models.UsageRecord{
		UserID:           actor.ID,
		UserName:         actor.Name,
		Role:             actor.Role,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      total,
		Cost:             float64(total) * s.rate,
		RangeStart:       dr.Start,
		RangeEnd:         dr.End,
		CreatedAt:        s.now(),
	}
	if err := s.repo.Append(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Summarize derives every cost view from the full ledger: grand totals,
// per-user breakdown, the trailing 30 days, and the most recent calls.
func (s *Service) Summarize(ctx context.Context) (*models.UsageSummary, error) {
	records, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.UsageSummary{
		ByUser:      []models.UserUsage{},
		Daily:       []models.DailyUsage{},
		RecentCalls: []models.UsageRecord{},
	}

	byUser := make(map[string]*models.UserUsage)
	var userOrder []string
	byDay := make(map[string]*models.DailyUsage)
	var dayOrder []string
	cutoff := s.now().Add(-dailyWindow)

	for _, r := range records {
		summary.Summary.TotalCalls++
		summary.Summary.TotalTokens += r.TotalTokens
		summary.Summary.TotalCost += r.Cost

		key := r.UserID.String()
		u, ok := byUser[key]
		if !ok {
			u = &models.UserUsage{UserID: r.UserID, UserName: r.UserName, Role: r.Role}
			byUser[key] = u
			userOrder = append(userOrder, key)
		}
		u.Calls++
		u.Tokens += r.TotalTokens
		u.Cost += r.Cost

		if r.CreatedAt.After(cutoff) {
			day := week.DayLabel(r.CreatedAt)
			d, ok := byDay[day]
			if !ok {
				d = &models.DailyUsage{Date: day}
				byDay[day] = d
				dayOrder = append(dayOrder, day)
			}
			d.Calls++
			d.Tokens += r.TotalTokens
			d.Cost += r.Cost
		}
	}

	for _, key := range userOrder {
		summary.ByUser = append(summary.ByUser, *byUser[key])
	}
	for _, day := range dayOrder {
		summary.Daily = append(summary.Daily, *byDay[day])
	}

	// Records arrive most recent first from the repository.
	n := len(records)
	if n > recentLimit {
		n = recentLimit
	}
	summary.RecentCalls = append(summary.RecentCalls, records[:n]...)

	return summary, nil
}
