package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/export"
)

// ExportFormat names a supported timetable export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus the headers a download needs.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

var timetableExportHeaders = []string{"Day", "Subject", "Professor", "Start", "End", "Room", "Type", "Date", "Status"}

// ExportService renders a student's timetable week as a downloadable file.
type ExportService struct {
	timetables *TimetableService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(timetables *TimetableService, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{timetables: timetables, csv: csv, pdf: pdf, logger: logger}
}

// ExportWeek renders one week of the caller's timetable. Admins may export
// another student's timetable by passing their id; students always export
// their own.
func (s *ExportService) ExportWeek(ctx context.Context, actor *models.JWTClaims, studentID string, weekIndex int, format ExportFormat) (*ExportResult, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	if weekIndex < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week index must be non-negative")
	}

	targetID := actor.UserID
	if studentID != "" && studentID != actor.UserID {
		if actor.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to export another student's timetable")
		}
		targetID = studentID
	}

	timetable, err := s.timetables.GetTimetableForStudent(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if weekIndex >= len(timetable.Schedule) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "week not found in timetable")
	}

	dataset := buildWeekDataset(timetable.Schedule[weekIndex])

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("timetable-week-%d.csv", weekIndex+1),
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Timetable - Week %d", weekIndex+1))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable-week-%d.pdf", weekIndex+1),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use csv or pdf")
	}
}

func buildWeekDataset(week models.Week) export.Dataset {
	dataset := export.Dataset{Headers: timetableExportHeaders}
	for _, day := range models.Weekdays {
		for _, session := range week.Sessions(day) {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Day":       day,
				"Subject":   session.Subject,
				"Professor": session.Professor,
				"Start":     session.StartTime,
				"End":       session.EndTime,
				"Room":      session.Room,
				"Type":      string(session.Type),
				"Date":      session.Date,
				"Status":    string(session.Status),
			})
		}
	}
	return dataset
}
