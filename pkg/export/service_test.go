package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/logger"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/store"
	"github.com/edconsult/commitdb/pkg/week"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Commitment{}))

	svc := NewService(store.NewCommitmentRepo(db), t.TempDir(), logger.New("error"))
	return svc, db
}

func seed(t *testing.T, db *gorm.DB, name, team string, achieved bool) {
	t.Helper()

	now := time.Now()
	info := week.ISOWeekInfo(now)
	status := models.StatusPending
	if achieved {
		status = models.StatusAchieved
	}
	require.NoError(t, db.Create(&models.Commitment{
		ID:             uuid.New(),
		ConsultantID:   uuid.New(),
		ConsultantName: name,
		TeamName:       team,
		CommitmentMade: "Close two admissions",
		LeadStage:      models.StageWarm,
		Status:         status,
		WeekNumber:     info.WeekNumber,
		Year:           info.Year,
		WeekStartDate:  info.WeekStartDate,
		WeekEndDate:    info.WeekEndDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error)
}

func admin() models.Actor {
	return models.Actor{ID: uuid.New(), Name: "Site Admin", Role: models.RoleAdmin}
}

func currentWeek(t *testing.T) week.DateRange {
	t.Helper()
	dr, err := week.DateRangeOf(week.ViewCurrentWeek, time.Now())
	require.NoError(t, err)
	return dr
}

func TestExport_CSV(t *testing.T) {
	svc, db := setupService(t)
	seed(t, db, "A. Khan", "North", true)
	seed(t, db, "B. Rao", "South", false)

	got, err := svc.Export(context.Background(), admin(), currentWeek(t), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, ".csv", filepath.Ext(got.FileName))

	file, err := os.Open(got.FilePath)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])

	names := []string{records[1][4], records[2][4]}
	assert.ElementsMatch(t, []string{"A. Khan", "B. Rao"}, names)
}

func TestExport_Excel(t *testing.T) {
	svc, db := setupService(t)
	seed(t, db, "A. Khan", "North", true)

	got, err := svc.Export(context.Background(), admin(), currentWeek(t), FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(got.FileName))

	f, err := excelize.OpenFile(got.FilePath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Commitments")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A. Khan", rows[1][4])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "A. Khan", summary[1][0])
	assert.Equal(t, "100", summary[1][5])
}

func TestExport_ScopeLimitsConsultant(t *testing.T) {
	svc, db := setupService(t)
	seed(t, db, "A. Khan", "North", true)
	seed(t, db, "B. Rao", "South", false)

	actor := models.Actor{
		ID:       uuid.New(),
		Name:     "A. Khan",
		Role:     models.RoleConsultant,
		TeamName: "North",
	}

	got, err := svc.Export(context.Background(), actor, currentWeek(t), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RowCount)
}

func TestExport_InvalidFormat(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Export(context.Background(), admin(), currentWeek(t), "pdf")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
