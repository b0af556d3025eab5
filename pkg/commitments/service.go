// Package commitments owns the commitment lifecycle: creation, mutation,
// closure, and deletion, with the validation and derivation rules every
// write must pass through.
package commitments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/logger"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/scope"
	"github.com/edconsult/commitdb/pkg/week"
)

// cachePrefix covers every cached aggregate built from commitments. Writes
// invalidate the whole prefix so deletes are reflected immediately.
const cachePrefix = "commitments:*"

// Service handles commitment business logic.
type Service struct {
	repo  domain.CommitmentRepository
	cache domain.CacheRepository
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a new commitment service. cache may be nil.
func NewService(repo domain.CommitmentRepository, cache domain.CacheRepository, log logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// Create validates and persists a new commitment for the actor.
// Consultants may only create for themselves, team leads for consultants in
// their own team, admins for anyone.
func (s *Service) Create(ctx context.Context, actor models.Actor, req models.CreateCommitmentRequest) (*models.Commitment, error) {
	if !models.IsValidRole(actor.Role) {
		return nil, domain.NewForbiddenError("unknown role: " + actor.Role)
	}
	if req.CommitmentMade == "" {
		return nil, domain.NewValidationError("commitment_made is required")
	}

	c := &models.Commitment{
		ConsultantName: req.ConsultantName,
		TeamName:       req.TeamName,
		StudentName:    req.StudentName,
		CommitmentMade: req.CommitmentMade,
		DayCommitted:   req.DayCommitted,

		LeadStage:             req.LeadStage,
		ConversionProbability: req.ConversionProbability,
		Status:                req.Status,

		MeetingsDone:          req.MeetingsDone,
		AchievementPercentage: req.AchievementPercentage,
		ProspectForWeek:       req.ProspectForWeek,

		AdmissionClosed: req.AdmissionClosed,
		ClosedDate:      req.ClosedDate,
		ClosedAmount:    req.ClosedAmount,

		FollowUpDate:  req.FollowUpDate,
		FollowUpNotes: req.FollowUpNotes,
	}
	if req.ConsultantID != nil {
		c.ConsultantID = *req.ConsultantID
	}

	switch actor.Role {
	case models.RoleConsultant:
		// Self only. An explicit target naming someone else is a scope
		// violation, not a validation problem.
		if req.ConsultantID != nil && *req.ConsultantID != actor.ID {
			return nil, domain.NewForbiddenError("consultants may only create commitments for themselves")
		}
		if req.ConsultantName != "" && req.ConsultantName != actor.Name {
			return nil, domain.NewForbiddenError("consultants may only create commitments for themselves")
		}
		c.ConsultantID = actor.ID
		c.ConsultantName = actor.Name
		c.TeamName = actor.TeamName
	case models.RoleTeamLead:
		if c.TeamName == "" {
			c.TeamName = actor.TeamName
		}
		if c.TeamName != actor.TeamName {
			return nil, domain.NewForbiddenError("team leads may only create commitments for their own team")
		}
	case models.RoleAdmin:
		// No restriction.
	}

	if c.ConsultantName == "" {
		return nil, domain.NewValidationError("consultant_name is required")
	}

	s.assignWeek(c, req)
	applyDerivations(c)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("commitment created",
		"id", c.ID, "consultant", c.ConsultantName, "week", c.WeekNumber, "year", c.Year)
	return c, nil
}

// Update merges a partial update into an existing record, re-checks scope
// and field permissions, and re-applies derivations to the merged state.
func (s *Service) Update(ctx context.Context, actor models.Actor, id uuid.UUID, patch models.UpdateCommitmentRequest) (*models.Commitment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sc, err := scope.Resolve(actor)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(c) {
		return nil, domain.NewForbiddenError("commitment is outside your scope")
	}

	// Week identity never moves between aggregation windows.
	if patch.WeekNumber != nil || patch.Year != nil || patch.WeekStartDate != nil || patch.WeekEndDate != nil {
		return nil, domain.NewValidationError("week assignment is immutable after creation")
	}

	// Collaboration fields are readable by everyone but written by one role.
	if patch.CorrectiveActionByTL != nil && actor.Role != models.RoleTeamLead && actor.Role != models.RoleAdmin {
		return nil, domain.NewForbiddenError("only team leads may write corrective_action_by_tl")
	}
	if patch.AdminComment != nil && actor.Role != models.RoleAdmin {
		return nil, domain.NewForbiddenError("only admins may write admin_comment")
	}

	if patch.CommitmentMade != nil {
		if *patch.CommitmentMade == "" {
			return nil, domain.NewValidationError("commitment_made cannot be empty")
		}
		c.CommitmentMade = *patch.CommitmentMade
	}

	merge(c, patch)
	applyDerivations(c)

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return c, nil
}

// CloseAdmission marks the admission closed regardless of lead stage.
// Closing an already-closed record is a no-op success.
func (s *Service) CloseAdmission(ctx context.Context, actor models.Actor, id uuid.UUID, closedDate time.Time, closedAmount *float64) (*models.Commitment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sc, err := scope.Resolve(actor)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(c) {
		return nil, domain.NewForbiddenError("commitment is outside your scope")
	}

	if c.AdmissionClosed {
		return c, nil
	}

	c.AdmissionClosed = true
	c.ClosedDate = &closedDate
	if closedAmount != nil {
		c.ClosedAmount = *closedAmount
	}
	applyDerivations(c)

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("admission closed", "id", c.ID, "consultant", c.ConsultantName)
	return c, nil
}

// Delete removes the record. Permitted to admins, the record's team lead,
// and the owning consultant; subsequent aggregate reads must not see it.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	sc, err := scope.Resolve(actor)
	if err != nil {
		return err
	}
	if !sc.Allows(c) {
		return domain.NewForbiddenError("commitment is outside your scope")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.Info("commitment deleted", "id", id)
	return nil
}

// Get loads one commitment the actor is allowed to see.
func (s *Service) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Commitment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sc, err := scope.Resolve(actor)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(c) {
		return nil, domain.NewForbiddenError("commitment is outside your scope")
	}
	return c, nil
}

// Query lists the actor's visible commitments inside a date range.
func (s *Service) Query(ctx context.Context, actor models.Actor, dr week.DateRange) ([]models.Commitment, error) {
	sc, err := scope.Resolve(actor)
	if err != nil {
		return nil, err
	}
	q := sc.Filter(models.CommitmentQuery{Start: dr.Start, End: dr.End})
	return s.repo.Query(ctx, q)
}

// assignWeek fills the week identity, deriving it from the current date
// unless the caller backdated the record explicitly.
func (s *Service) assignWeek(c *models.Commitment, req models.CreateCommitmentRequest) {
	if req.WeekStartDate != nil {
		// Backdated: normalize whatever date was given to its ISO week so
		// the stored pair is always a consistent Monday-Sunday window.
		info := week.ISOWeekInfo(*req.WeekStartDate)
		c.WeekNumber = info.WeekNumber
		c.Year = info.Year
		c.WeekStartDate = info.WeekStartDate
		c.WeekEndDate = info.WeekEndDate
		return
	}

	if req.WeekNumber != nil && req.Year != nil {
		info := week.FromNumber(*req.Year, *req.WeekNumber)
		c.WeekNumber = info.WeekNumber
		c.Year = info.Year
		c.WeekStartDate = info.WeekStartDate
		c.WeekEndDate = info.WeekEndDate
		return
	}

	info := week.ISOWeekInfo(s.now())
	c.WeekNumber = info.WeekNumber
	c.Year = info.Year
	c.WeekStartDate = info.WeekStartDate
	c.WeekEndDate = info.WeekEndDate
}

// merge copies non-nil patch fields onto the record. commitment_made and the
// role-gated fields are handled by the caller before this runs.
func merge(c *models.Commitment, p models.UpdateCommitmentRequest) {
	if p.StudentName != nil {
		c.StudentName = *p.StudentName
	}
	if p.DayCommitted != nil {
		c.DayCommitted = *p.DayCommitted
	}
	if p.LeadStage != nil {
		c.LeadStage = *p.LeadStage
	}
	if p.ConversionProbability != nil {
		c.ConversionProbability = *p.ConversionProbability
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.MeetingsDone != nil {
		c.MeetingsDone = *p.MeetingsDone
	}
	if p.AchievementPercentage != nil {
		c.AchievementPercentage = *p.AchievementPercentage
	}
	if p.ProspectForWeek != nil {
		c.ProspectForWeek = *p.ProspectForWeek
	}
	if p.AdmissionClosed != nil {
		c.AdmissionClosed = *p.AdmissionClosed
	}
	if p.ClosedDate != nil {
		c.ClosedDate = p.ClosedDate
	}
	if p.ClosedAmount != nil {
		c.ClosedAmount = *p.ClosedAmount
	}
	if p.CorrectiveActionByTL != nil {
		c.CorrectiveActionByTL = *p.CorrectiveActionByTL
	}
	if p.AdminComment != nil {
		c.AdminComment = *p.AdminComment
	}
	if p.FollowUpDate != nil {
		c.FollowUpDate = p.FollowUpDate
	}
	if p.FollowUpNotes != nil {
		c.FollowUpNotes = *p.FollowUpNotes
	}
}

// applyDerivations enforces the post-merge invariants on whatever state is
// about to be persisted: the Admission stage forces closure, numeric fields
// are clamped into range, and status defaults to pending. It runs after
// every create and update so the invariants hold no matter how writes
// interleave.
func applyDerivations(c *models.Commitment) {
	if c.LeadStage == models.StageAdmission {
		c.AdmissionClosed = true
	}
	c.ConversionProbability = clamp(c.ConversionProbability, 0, 100)
	c.AchievementPercentage = clamp(c.AchievementPercentage, 0, 100)
	c.ProspectForWeek = clamp(c.ProspectForWeek, 0, 10)
	if c.MeetingsDone < 0 {
		c.MeetingsDone = 0
	}
	if c.Status == "" {
		c.Status = models.StatusPending
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, cachePrefix); err != nil {
		s.log.Warn(fmt.Sprintf("failed to invalidate commitment caches: %v", err))
	}
}
