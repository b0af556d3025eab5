package commitments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/logger"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/store"
	"github.com/edconsult/commitdb/pkg/week"
)

// setupService opens a per-test in-memory SQLite database. The database name
// is keyed by test name so shared-cache connections within one test see the
// same data without leaking across tests.
func setupService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	return NewService(store.NewCommitmentRepo(db), nil, logger.New("error"))
}

func consultant(name, team string) models.Actor {
	return models.Actor{ID: uuid.New(), Name: name, Role: models.RoleConsultant, TeamName: team}
}

func teamLead(name, team string) models.Actor {
	return models.Actor{ID: uuid.New(), Name: name, Role: models.RoleTeamLead, TeamName: team}
}

func admin() models.Actor {
	return models.Actor{ID: uuid.New(), Name: "Admin", Role: models.RoleAdmin}
}

func ptr[T any](v T) *T { return &v }

func TestCreate_ConsultantDefaults(t *testing.T) {
	svc := setupService(t)
	actor := consultant("A. Khan", "North")

	c, err := svc.Create(context.Background(), actor, models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		LeadStage:      models.StageCold,
	})
	require.NoError(t, err)

	assert.Equal(t, actor.ID, c.ConsultantID)
	assert.Equal(t, "A. Khan", c.ConsultantName)
	assert.Equal(t, "North", c.TeamName)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.False(t, c.AdmissionClosed)
	assert.Zero(t, c.AchievementPercentage)

	// Week derived from today, Monday-Sunday
	info := week.ISOWeekInfo(time.Now())
	assert.Equal(t, info.WeekNumber, c.WeekNumber)
	assert.Equal(t, info.Year, c.Year)
	assert.Equal(t, time.Monday, c.WeekStartDate.Weekday())
	assert.Equal(t, time.Sunday, c.WeekEndDate.Weekday())
}

func TestCreate_RequiresCommitmentText(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Create(context.Background(), consultant("A. Khan", "North"), models.CreateCommitmentRequest{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCreate_ConsultantCannotCreateForOthers(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Create(context.Background(), consultant("A. Khan", "North"), models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		ConsultantName: "B. Rao",
	})
	require.Error(t, err)
	assert.True(t, domain.IsForbidden(err))
}

func TestCreate_TeamLeadOnBehalfOfOwnTeam(t *testing.T) {
	svc := setupService(t)
	lead := teamLead("T. Lead", "North")

	c, err := svc.Create(context.Background(), lead, models.CreateCommitmentRequest{
		CommitmentMade: "Call student",
		ConsultantName: "A. Khan",
	})
	require.NoError(t, err)
	assert.Equal(t, "A. Khan", c.ConsultantName)
	assert.Equal(t, "North", c.TeamName)

	_, err = svc.Create(context.Background(), lead, models.CreateCommitmentRequest{
		CommitmentMade: "Call student",
		ConsultantName: "C. Das",
		TeamName:       "South",
	})
	require.Error(t, err)
	assert.True(t, domain.IsForbidden(err))
}

func TestCreate_UnknownRoleRejected(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Create(context.Background(), models.Actor{ID: uuid.New(), Role: "manager"}, models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		ConsultantName: "A. Khan",
	})
	require.Error(t, err)
	assert.True(t, domain.IsForbidden(err))
}

func TestCreate_ClampsNumericFields(t *testing.T) {
	svc := setupService(t)

	c, err := svc.Create(context.Background(), consultant("A. Khan", "North"), models.CreateCommitmentRequest{
		CommitmentMade:        "Follow up",
		ConversionProbability: 140,
		AchievementPercentage: -20,
		ProspectForWeek:       99,
		MeetingsDone:          -3,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, c.ConversionProbability)
	assert.Equal(t, 0, c.AchievementPercentage)
	assert.Equal(t, 10, c.ProspectForWeek)
	assert.Equal(t, 0, c.MeetingsDone)
}

func TestCreate_AdmissionStageForcesClosure(t *testing.T) {
	svc := setupService(t)

	c, err := svc.Create(context.Background(), consultant("A. Khan", "North"), models.CreateCommitmentRequest{
		CommitmentMade: "Enroll student",
		LeadStage:      models.StageAdmission,
	})
	require.NoError(t, err)
	assert.True(t, c.AdmissionClosed)
}

func TestCreate_BackdatedWeekIsNormalized(t *testing.T) {
	svc := setupService(t)

	// A Wednesday; the stored week must snap to its Monday.
	backdate := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	c, err := svc.Create(context.Background(), consultant("A. Khan", "North"), models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		WeekStartDate:  &backdate,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, c.WeekNumber)
	assert.Equal(t, 2025, c.Year)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), c.WeekStartDate)
}

func TestCreate_WeekNumberPairAssignsWindow(t *testing.T) {
	svc := setupService(t)

	c, err := svc.Create(context.Background(), consultant("A. Khan", "North"), models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		WeekNumber:     ptr(25),
		Year:           ptr(2025),
	})
	require.NoError(t, err)

	assert.Equal(t, 25, c.WeekNumber)
	assert.Equal(t, 2025, c.Year)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), c.WeekStartDate)
	assert.Equal(t, time.Sunday, c.WeekEndDate.Weekday())
}

func TestCreate_WeekStartDateWinsOverNumberPair(t *testing.T) {
	svc := setupService(t)

	backdate := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	c, err := svc.Create(context.Background(), consultant("A. Khan", "North"), models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		WeekStartDate:  &backdate,
		WeekNumber:     ptr(2),
		Year:           ptr(2024),
	})
	require.NoError(t, err)

	assert.Equal(t, 25, c.WeekNumber)
	assert.Equal(t, 2025, c.Year)
}

func TestUpdate_StageToAdmissionAutoCloses(t *testing.T) {
	svc := setupService(t)
	actor := consultant("A. Khan", "North")
	ctx := context.Background()

	c, err := svc.Create(ctx, actor, models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		LeadStage:      models.StageCold,
	})
	require.NoError(t, err)
	require.False(t, c.AdmissionClosed)

	lead := teamLead("T. Lead", "North")
	updated, err := svc.Update(ctx, lead, c.ID, models.UpdateCommitmentRequest{
		LeadStage: ptr(models.StageAdmission),
	})
	require.NoError(t, err)
	assert.True(t, updated.AdmissionClosed, "Admission stage must force closure even when the patch did not set it")
}

func TestUpdate_ClampsAfterMerge(t *testing.T) {
	svc := setupService(t)
	actor := consultant("A. Khan", "North")
	ctx := context.Background()

	c, err := svc.Create(ctx, actor, models.CreateCommitmentRequest{CommitmentMade: "Follow up"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, actor, c.ID, models.UpdateCommitmentRequest{
		AchievementPercentage: ptr(250),
		MeetingsDone:          ptr(-1),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, updated.AchievementPercentage)
	assert.Equal(t, 0, updated.MeetingsDone)
}

func TestUpdate_WeekIdentityImmutable(t *testing.T) {
	svc := setupService(t)
	actor := consultant("A. Khan", "North")
	ctx := context.Background()

	c, err := svc.Create(ctx, actor, models.CreateCommitmentRequest{CommitmentMade: "Follow up"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, actor, c.ID, models.UpdateCommitmentRequest{
		WeekNumber: ptr(1),
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	// Other updates leave the week untouched.
	updated, err := svc.Update(ctx, actor, c.ID, models.UpdateCommitmentRequest{
		MeetingsDone: ptr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, c.WeekNumber, updated.WeekNumber)
	assert.Equal(t, c.Year, updated.Year)
	assert.True(t, c.WeekStartDate.Equal(updated.WeekStartDate))
	assert.True(t, c.WeekEndDate.Equal(updated.WeekEndDate))
}

func TestUpdate_RoleGatedFields(t *testing.T) {
	svc := setupService(t)
	actor := consultant("A. Khan", "North")
	ctx := context.Background()

	c, err := svc.Create(ctx, actor, models.CreateCommitmentRequest{CommitmentMade: "Follow up"})
	require.NoError(t, err)

	// Consultant cannot write team-lead or admin fields.
	_, err = svc.Update(ctx, actor, c.ID, models.UpdateCommitmentRequest{
		CorrectiveActionByTL: ptr("call earlier"),
	})
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.Update(ctx, actor, c.ID, models.UpdateCommitmentRequest{
		AdminComment: ptr("noted"),
	})
	assert.True(t, domain.IsForbidden(err))

	// Team lead writes corrective action but not the admin comment.
	lead := teamLead("T. Lead", "North")
	updated, err := svc.Update(ctx, lead, c.ID, models.UpdateCommitmentRequest{
		CorrectiveActionByTL: ptr("call earlier"),
	})
	require.NoError(t, err)
	assert.Equal(t, "call earlier", updated.CorrectiveActionByTL)

	_, err = svc.Update(ctx, lead, c.ID, models.UpdateCommitmentRequest{
		AdminComment: ptr("noted"),
	})
	assert.True(t, domain.IsForbidden(err))

	// Admin writes both.
	updated, err = svc.Update(ctx, admin(), c.ID, models.UpdateCommitmentRequest{
		AdminComment: ptr("noted"),
	})
	require.NoError(t, err)
	assert.Equal(t, "noted", updated.AdminComment)
}

func TestUpdate_ScopeEnforced(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, consultant("A. Khan", "North"), models.CreateCommitmentRequest{CommitmentMade: "Follow up"})
	require.NoError(t, err)

	// Another consultant
	_, err = svc.Update(ctx, consultant("B. Rao", "North"), c.ID, models.UpdateCommitmentRequest{
		MeetingsDone: ptr(1),
	})
	assert.True(t, domain.IsForbidden(err))

	// Team lead of a different team
	_, err = svc.Update(ctx, teamLead("S. Lead", "South"), c.ID, models.UpdateCommitmentRequest{
		MeetingsDone: ptr(1),
	})
	assert.True(t, domain.IsForbidden(err))
}

func TestUpdate_NotFound(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Update(context.Background(), admin(), uuid.New(), models.UpdateCommitmentRequest{
		MeetingsDone: ptr(1),
	})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestCloseAdmission_IndependentOfStageAndIdempotent(t *testing.T) {
	svc := setupService(t)
	actor := consultant("A. Khan", "North")
	ctx := context.Background()

	c, err := svc.Create(ctx, actor, models.CreateCommitmentRequest{
		CommitmentMade: "Follow up",
		LeadStage:      models.StageWarm,
	})
	require.NoError(t, err)

	closedDate := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	amount := 1500.0

	closed, err := svc.CloseAdmission(ctx, actor, c.ID, closedDate, &amount)
	require.NoError(t, err)
	assert.True(t, closed.AdmissionClosed)
	assert.Equal(t, models.StageWarm, closed.LeadStage, "closure does not rewrite the stage")
	require.NotNil(t, closed.ClosedDate)
	assert.True(t, closedDate.Equal(*closed.ClosedDate))
	assert.Equal(t, 1500.0, closed.ClosedAmount)

	// Second close with the same arguments is a no-op success.
	again, err := svc.CloseAdmission(ctx, actor, c.ID, closedDate, &amount)
	require.NoError(t, err)
	assert.True(t, again.AdmissionClosed)
	assert.Equal(t, closed.ClosedAmount, again.ClosedAmount)
	assert.True(t, closed.ClosedDate.Equal(*again.ClosedDate))
}

func TestDelete_RemovedFromSubsequentQueries(t *testing.T) {
	svc := setupService(t)
	actor := consultant("A. Khan", "North")
	ctx := context.Background()

	c, err := svc.Create(ctx, actor, models.CreateCommitmentRequest{CommitmentMade: "Follow up"})
	require.NoError(t, err)

	// Out-of-scope consultant cannot delete.
	err = svc.Delete(ctx, consultant("B. Rao", "North"), c.ID)
	assert.True(t, domain.IsForbidden(err))

	require.NoError(t, svc.Delete(ctx, actor, c.ID))

	dr, err := week.DateRangeOf(week.ViewCurrentWeek, time.Now())
	require.NoError(t, err)
	rows, err := svc.Query(ctx, admin(), dr)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = svc.Delete(ctx, actor, c.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestQuery_ScopedByRole(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	khan := consultant("A. Khan", "North")
	rao := consultant("B. Rao", "South")

	_, err := svc.Create(ctx, khan, models.CreateCommitmentRequest{CommitmentMade: "Follow up"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, rao, models.CreateCommitmentRequest{CommitmentMade: "Send offer"})
	require.NoError(t, err)

	dr, err := week.DateRangeOf(week.ViewCurrentWeek, time.Now())
	require.NoError(t, err)

	rows, err := svc.Query(ctx, admin(), dr)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = svc.Query(ctx, teamLead("T. Lead", "North"), dr)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A. Khan", rows[0].ConsultantName)

	rows, err = svc.Query(ctx, khan, dr)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A. Khan", rows[0].ConsultantName)

	_, err = svc.Query(ctx, models.Actor{ID: uuid.New(), Role: "guest"}, dr)
	assert.True(t, domain.IsForbidden(err))
}

func TestQuery_TeamLeadWithoutTeamSeesNothing(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, consultant("A. Khan", "North"), models.CreateCommitmentRequest{CommitmentMade: "Follow up"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, consultant("B. Rao", "South"), models.CreateCommitmentRequest{CommitmentMade: "Send offer"})
	require.NoError(t, err)

	dr, err := week.DateRangeOf(week.ViewCurrentWeek, time.Now())
	require.NoError(t, err)

	// A lead without a team must not fall through to an unrestricted view.
	rows, err := svc.Query(ctx, models.Actor{ID: uuid.New(), Name: "T. Lead", Role: models.RoleTeamLead}, dr)
	assert.True(t, domain.IsForbidden(err))
	assert.Empty(t, rows)
}

// Team-lead creation on behalf of a consultant is looser than consultant
// self-updates: the lead sets progress fields freely at create time, while
// the consultant's own later edits stay restricted to their permitted set.
// The asymmetry is intentional and preserved.
func TestCreateUpdateAsymmetryForTeamLeads(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	lead := teamLead("T. Lead", "North")

	c, err := svc.Create(ctx, lead, models.CreateCommitmentRequest{
		CommitmentMade:        "Close admission",
		ConsultantName:        "A. Khan",
		AchievementPercentage: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, c.AchievementPercentage)

	// The named consultant still edits it afterward (scope matches by name),
	// but cannot touch the lead-only field.
	khan := models.Actor{ID: uuid.New(), Name: "A. Khan", Role: models.RoleConsultant, TeamName: "North"}
	_, err = svc.Update(ctx, khan, c.ID, models.UpdateCommitmentRequest{
		CorrectiveActionByTL: ptr("x"),
	})
	assert.True(t, domain.IsForbidden(err))

	updated, err := svc.Update(ctx, khan, c.ID, models.UpdateCommitmentRequest{
		AchievementPercentage: ptr(60),
	})
	require.NoError(t, err)
	assert.Equal(t, 60, updated.AchievementPercentage)
}
