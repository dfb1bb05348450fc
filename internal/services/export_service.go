package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leonthanh/listening-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type exportService struct {
	submissions repositories.SubmissionRepository
	tests       repositories.TestRepository
	logger      *slog.Logger
}

func NewExportService(submissions repositories.SubmissionRepository, tests repositories.TestRepository, logger *slog.Logger) ExportService {
	return &exportService{
		submissions: submissions,
		tests:       tests,
		logger:      logger,
	}
}

// ExportTestResults writes every finished submission of a test to an Excel
// workbook.
func (s *exportService) ExportTestResults(ctx context.Context, testID uint) ([]byte, error) {
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	finished := true
	subs, _, err := s.submissions.List(ctx, repositories.SubmissionFilters{
		TestID:    &testID,
		Finished:  &finished,
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Submission ID", "Student Name", "Student ID", "User ID",
		"Submitted At", "Total Questions", "Correct", "Percentage", "Band",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, sub := range subs {
		submittedAt := ""
		if sub.SubmittedAt != nil {
			submittedAt = sub.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		row := []interface{}{
			sub.ID, sub.StudentName, sub.StudentID, sub.UserID,
			submittedAt, sub.TotalQuestions, sub.Correct,
			fmt.Sprintf("%.1f%%", sub.Percentage), sub.Band,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported test results",
		"test_id", testID, "title", test.Title, "submissions", len(subs))
	return buf.Bytes(), nil
}
