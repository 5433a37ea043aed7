package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type mockRoster struct {
	byClass map[string][]models.Enrollment
}

func (m *mockRoster) ListConfirmedByClass(ctx context.Context, classID string) ([]models.Enrollment, error) {
	return m.byClass[classID], nil
}

func newTestReportService(t *testing.T, enabled bool) (*ReportService, *mockAuditSink) {
	t.Helper()
	classes := &mockClassRepo{classes: map[string]*models.SportClass{
		"judo": {
			ID: "judo", Title: "Judo Youth", TimeRange: "14:00-15:00", Location: "Mat 2",
			Days: []string{"monday", "wednesday"}, Status: models.ClassStatusActive, Capacity: 20,
		},
	}}
	roster := &mockRoster{byClass: map[string][]models.Enrollment{
		"judo": {
			{ID: "e1", ClassID: "judo", StudentID: "student-1", StudentName: "Ana Souza", Status: models.EnrollmentStatusConfirmed},
		},
	}}
	audit := &mockAuditSink{}
	svc := NewReportService(classes, roster, audit, enabled, nil)
	return svc, audit
}

func TestMonthlySheetCSV(t *testing.T) {
	svc, audit := newTestReportService(t, true)

	// June 2026 starts on a Monday
	file, err := svc.MonthlySheet(context.Background(), 2026, time.June, "judo", ReportFormatCSV, coordinatorClaims())
	require.NoError(t, err)

	assert.Equal(t, "attendance-2026-06.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Content)
	assert.Contains(t, body, "Attendance - June 2026")
	assert.Contains(t, body, "Judo Youth - 14:00-15:00 (Mat 2)")
	assert.Contains(t, body, "Ana Souza")

	// meeting days get checkboxes, off days get dashes
	line := ""
	for _, l := range strings.Split(body, "\n") {
		if strings.Contains(l, "Ana Souza") {
			line = l
			break
		}
	}
	require.NotEmpty(t, line)
	cells := strings.Split(line, ",")
	require.Len(t, cells, 31) // name + 30 days
	assert.Equal(t, "[ ]", cells[1])  // Monday June 1
	assert.Equal(t, "---", cells[2])  // Tuesday June 2
	assert.Equal(t, "[ ]", cells[3])  // Wednesday June 3

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionExportReport, audit.entries[0].Action)
	assert.Contains(t, audit.entries[0].Details, "CSV")
}

func TestMonthlySheetPDF(t *testing.T) {
	svc, _ := newTestReportService(t, true)

	file, err := svc.MonthlySheet(context.Background(), 2026, time.June, "judo", ReportFormatPDF, coordinatorClaims())
	require.NoError(t, err)

	assert.Equal(t, "attendance-2026-06.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestMonthlySheetDisabled(t *testing.T) {
	svc, _ := newTestReportService(t, false)

	_, err := svc.MonthlySheet(context.Background(), 2026, time.June, "judo", ReportFormatCSV, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMonthlySheetRejectsBadMonth(t *testing.T) {
	svc, _ := newTestReportService(t, true)

	_, err := svc.MonthlySheet(context.Background(), 1950, time.June, "judo", ReportFormatCSV, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MonthlySheet(context.Background(), 2026, time.Month(13), "judo", ReportFormatCSV, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMonthlySheetUnknownClass(t *testing.T) {
	svc, _ := newTestReportService(t, true)

	_, err := svc.MonthlySheet(context.Background(), 2026, time.June, "missing", ReportFormatCSV, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMeetingWeekdaysSkipsUnknownLabels(t *testing.T) {
	meets := meetingWeekdays([]string{"Monday", " wednesday ", "someday"})
	assert.True(t, meets[time.Monday])
	assert.True(t, meets[time.Wednesday])
	assert.Len(t, meets, 2)
}
