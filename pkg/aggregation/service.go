package aggregation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/logger"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/scope"
	"github.com/edconsult/commitdb/pkg/week"
)

// Dashboard is the full rollup payload for one scope and date range.
type Dashboard struct {
	Range        week.DateRange       `json:"range"`
	Summary      models.WeeklySummary `json:"summary"`
	ByConsultant []RollupRow          `json:"by_consultant"`
	ByTeam       []TeamRollup         `json:"by_team"`
	StageCounts  []StageCount         `json:"stage_counts"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// Service computes rollups over scope-filtered commitment sets, with a short
// read-through cache. Commitment writes invalidate the commitments:* prefix,
// so cached aggregates never outlive a delete.
type Service struct {
	repo     domain.CommitmentRepository
	cache    domain.CacheRepository
	cacheTTL time.Duration
	log      logger.Logger
}

// NewService creates a new aggregation service. cache may be nil.
func NewService(repo domain.CommitmentRepository, cache domain.CacheRepository, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: 5 * time.Minute,
		log:      log,
	}
}

// fetch loads the actor's visible commitments for a range.
func (s *Service) fetch(ctx context.Context, actor models.Actor, dr week.DateRange) ([]models.Commitment, error) {
	sc, err := scope.Resolve(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.Query(ctx, sc.Filter(models.CommitmentQuery{Start: dr.Start, End: dr.End}))
}

// GetDashboard computes the combined rollup view for a date range.
func (s *Service) GetDashboard(ctx context.Context, actor models.Actor, dr week.DateRange) (*Dashboard, error) {
	cacheKey := fmt.Sprintf("commitments:dashboard:%s:%s:%s:%s",
		actor.Role, actor.ID, dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var d Dashboard
			if err := json.Unmarshal([]byte(cached), &d); err == nil {
				return &d, nil
			}
		}
	}

	commitments, err := s.fetch(ctx, actor, dr)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Range:        dr,
		Summary:      WeekSummary(commitments),
		ByConsultant: ByConsultant(commitments),
		ByTeam:       ByTeam(commitments),
		StageCounts:  StageDistribution(commitments),
		GeneratedAt:  time.Now(),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(d); err == nil {
			_ = s.cache.Set(ctx, cacheKey, payload, s.cacheTTL)
		}
	}
	return d, nil
}

// GetMonthlyTrend computes per-month rollups over the trailing monthsBack
// months ending now.
func (s *Service) GetMonthlyTrend(ctx context.Context, actor models.Actor, monthsBack int) ([]RollupRow, error) {
	if monthsBack <= 0 {
		monthsBack = 6
	}
	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(monthsBack - 1), 0)
	dr := week.CustomRange(first, now)

	commitments, err := s.fetch(ctx, actor, dr)
	if err != nil {
		return nil, err
	}
	return Monthly(commitments, monthsBack, now), nil
}

// GetDailyActivity computes per-day rollups across one calendar month.
func (s *Service) GetDailyActivity(ctx context.Context, actor models.Actor, month time.Time) ([]RollupRow, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	dr := week.CustomRange(first, first.AddDate(0, 1, -1))

	commitments, err := s.fetch(ctx, actor, dr)
	if err != nil {
		return nil, err
	}
	return Daily(commitments, month), nil
}
