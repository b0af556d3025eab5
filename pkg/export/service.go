// Package export writes scope-filtered commitment data to CSV or Excel
// files under a local storage directory.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edconsult/commitdb/pkg/aggregation"
	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/logger"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/scope"
	"github.com/edconsult/commitdb/pkg/week"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// Result describes a generated export file.
type Result struct {
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"-"`
	Format    string    `json:"format"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Service handles export business logic.
type Service struct {
	repo        domain.CommitmentRepository
	storagePath string
	log         logger.Logger
}

// NewService creates a new export service.
func NewService(repo domain.CommitmentRepository, storagePath string, log logger.Logger) *Service {
	os.MkdirAll(storagePath, 0755)

	return &Service{
		repo:        repo,
		storagePath: storagePath,
		log:         log,
	}
}

// Export writes the commitments visible to the actor within the range to a
// file in the requested format and returns its location.
func (s *Service) Export(ctx context.Context, actor models.Actor, dr week.DateRange, format string) (*Result, error) {
	if format != FormatCSV && format != FormatExcel {
		return nil, domain.NewValidationError("invalid format: must be csv or excel")
	}

	sc, err := scope.Resolve(actor)
	if err != nil {
		return nil, err
	}
	query := sc.Filter(models.CommitmentQuery{Start: dr.Start, End: dr.End})

	rows, err := s.repo.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load commitments: %w", err)
	}

	ext := "csv"
	if format == FormatExcel {
		ext = "xlsx"
	}
	timestamp := time.Now().Format("20060102-150405")
	fileName := fmt.Sprintf("commitments-%s.%s", timestamp, ext)
	fullPath := filepath.Join(s.storagePath, fileName)

	if format == FormatCSV {
		err = s.generateCSV(fullPath, rows)
	} else {
		err = s.generateExcel(fullPath, rows)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("export generated", "file", fileName, "rows", len(rows), "user", actor.Name)

	return &Result{
		FileName:  fileName,
		FilePath:  fullPath,
		Format:    format,
		RowCount:  len(rows),
		CreatedAt: time.Now(),
	}, nil
}

var exportHeader = []string{
	"Week", "Year", "Week Start", "Week End", "Consultant", "Team",
	"Commitment", "Stage", "Status", "Conversion %", "Achievement %",
	"Prospects", "Meetings Done", "Admission Closed", "Closed Amount",
	"Created At",
}

func exportRow(c models.Commitment) []string {
	return []string{
		strconv.Itoa(c.WeekNumber),
		strconv.Itoa(c.Year),
		c.WeekStartDate.Format("2006-01-02"),
		c.WeekEndDate.Format("2006-01-02"),
		c.ConsultantName,
		c.TeamName,
		c.CommitmentMade,
		c.LeadStage,
		c.Status,
		strconv.Itoa(c.ConversionProbability),
		strconv.Itoa(c.AchievementPercentage),
		strconv.Itoa(c.ProspectForWeek),
		strconv.Itoa(c.MeetingsDone),
		strconv.FormatBool(c.AdmissionClosed),
		fmt.Sprintf("%.2f", c.ClosedAmount),
		c.CreatedAt.Format(time.RFC3339),
	}
}

// generateCSV writes commitments to a CSV file.
func (s *Service) generateCSV(path string, rows []models.Commitment) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, c := range rows {
		if err := writer.Write(exportRow(c)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

// generateExcel writes commitments plus a per-consultant summary sheet.
func (s *Service) generateExcel(path string, rows []models.Commitment) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Commitments"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, header := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, c := range rows {
		for colIdx, value := range exportRow(c) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := 1; i <= len(exportHeader); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(sheetName, col, col, 15)
	}

	if err := s.writeSummarySheet(f, headerStyle, rows); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	return nil
}

func (s *Service) writeSummarySheet(f *excelize.File, headerStyle int, rows []models.Commitment) error {
	sheetName := "Summary"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	headers := []string{"Consultant", "Commitments", "Achieved", "Meetings", "Closed", "Achievement Rate %"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range aggregation.ByConsultant(rows) {
		r := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), row.Key)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", r), row.Total)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", r), row.Achieved)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", r), row.Meetings)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", r), row.Closed)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", r), row.AchievementRate)
	}

	for i := 1; i <= len(headers); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(sheetName, col, col, 18)
	}

	return nil
}
