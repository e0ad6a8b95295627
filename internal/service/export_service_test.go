package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/export"
)

func newExportServiceForTest(repo timetableRepository) *ExportService {
	timetables := newTimetableService(repo)
	return NewExportService(timetables, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
}

func TestExportWeekCSV(t *testing.T) {
	repo := newFakeTimetableRepo()
	timetables := newTimetableService(repo)
	svc := NewExportService(timetables, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
	ctx := context.Background()

	_, err := timetables.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	_, err = timetables.AddClass(ctx, studentClaims("s1"), addRequest("Wednesday", "11:00", "12:00"))
	require.NoError(t, err)

	result, err := svc.ExportWeek(ctx, studentClaims("s1"), "", 0, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "timetable-week-1.csv", result.Filename)

	content := string(result.Content)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Day")
	assert.Contains(t, lines[1], "Monday")
	assert.Contains(t, lines[1], "Algorithms")
	assert.Contains(t, lines[2], "Wednesday")
}

func TestExportWeekPDF(t *testing.T) {
	repo := newFakeTimetableRepo()
	timetables := newTimetableService(repo)
	svc := NewExportService(timetables, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
	ctx := context.Background()

	_, err := timetables.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)

	result, err := svc.ExportWeek(ctx, studentClaims("s1"), "", 0, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportWeekValidation(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newExportServiceForTest(repo)
	ctx := context.Background()

	_, err := svc.ExportWeek(ctx, nil, "", 0, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.ExportWeek(ctx, studentClaims("s1"), "", -1, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ExportWeek(ctx, studentClaims("s1"), "s2", 0, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportWeekAdminTargetsStudent(t *testing.T) {
	repo := newFakeTimetableRepo()
	timetables := newTimetableService(repo)
	svc := NewExportService(timetables, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
	ctx := context.Background()

	_, err := timetables.AddClass(ctx, studentClaims("s1"), addRequest("Friday", "09:00", "10:00"))
	require.NoError(t, err)

	result, err := svc.ExportWeek(ctx, adminClaims("a1"), "s1", 0, ExportFormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(result.Content), "Friday")

	_, err = svc.ExportWeek(ctx, adminClaims("a1"), "s1", 4, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.ExportWeek(ctx, adminClaims("a1"), "s1", 0, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
