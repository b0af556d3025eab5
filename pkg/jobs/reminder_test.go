package jobs

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

	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/store"
	"github.com/edconsult/commitdb/pkg/week"
)

type recordingSink struct {
	sent []string
	fail map[string]bool
}

func (s *recordingSink) SendCommitmentReminder(toEmail, toName string, weekNumber, year int) error {
	if s.fail[toEmail] {
		return fmt.Errorf("delivery failed")
	}
	s.sent = append(s.sent, toEmail)
	return nil
}

func setupMonitor(t *testing.T, sink *recordingSink) (*ReminderMonitor, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Commitment{}))

	monitor := NewReminderMonitor(store.NewCommitmentRepo(db), store.NewUserRepo(db), sink, nil)
	return monitor, db
}

func seedConsultant(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	u := &models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Role:     models.RoleConsultant,
		TeamName: "North",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedWeekCommitment(t *testing.T, db *gorm.DB, consultantID uuid.UUID, name string) {
	t.Helper()

	info := week.ISOWeekInfo(time.Now())
	require.NoError(t, db.Create(&models.Commitment{
		ID:             uuid.New(),
		ConsultantID:   consultantID,
		ConsultantName: name,
		TeamName:       "North",
		CommitmentMade: "Call five prospects",
		WeekNumber:     info.WeekNumber,
		Year:           info.Year,
		WeekStartDate:  info.WeekStartDate,
		WeekEndDate:    info.WeekEndDate,
	}).Error)
}

func TestDetectMissingCommitments(t *testing.T) {
	sink := &recordingSink{}
	monitor, db := setupMonitor(t, sink)

	khan := seedConsultant(t, db, "A. Khan", "khan@example.com")
	seedConsultant(t, db, "B. Rao", "rao@example.com")
	seedWeekCommitment(t, db, khan.ID, khan.Name)

	missing, err := monitor.DetectMissingCommitments(context.Background())
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "B. Rao", missing[0].Name)
}

func TestDetectMissingCommitments_NameMatchCounts(t *testing.T) {
	sink := &recordingSink{}
	monitor, db := setupMonitor(t, sink)

	// A team lead logged for the consultant before the account existed,
	// so the row carries a nil id but the right name.
	khan := seedConsultant(t, db, "A. Khan", "khan@example.com")
	seedWeekCommitment(t, db, uuid.Nil, khan.Name)

	missing, err := monitor.DetectMissingCommitments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSendReminders_SkipsFailedDeliveries(t *testing.T) {
	sink := &recordingSink{fail: map[string]bool{"rao@example.com": true}}
	monitor, db := setupMonitor(t, sink)

	seedConsultant(t, db, "A. Khan", "khan@example.com")
	seedConsultant(t, db, "B. Rao", "rao@example.com")
	seedConsultant(t, db, "C. Das", "das@example.com")

	sent, err := monitor.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{"khan@example.com", "das@example.com"}, sink.sent)
}

func TestSendReminders_NobodyMissing(t *testing.T) {
	sink := &recordingSink{}
	monitor, db := setupMonitor(t, sink)

	khan := seedConsultant(t, db, "A. Khan", "khan@example.com")
	seedWeekCommitment(t, db, khan.ID, khan.Name)

	sent, err := monitor.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sink.sent)
}
