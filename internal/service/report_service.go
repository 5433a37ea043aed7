package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
	"github.com/viva-esporte/arena-api/pkg/export"
)

type classCatalog interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.SportClass, int, error)
	FindByID(ctx context.Context, id string) (*models.SportClass, error)
}

type rosterReader interface {
	ListConfirmedByClass(ctx context.Context, classID string) ([]models.Enrollment, error)
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// ReportFormat selects the attendance sheet output.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportFile is a rendered sheet ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService renders printable monthly attendance sheets. Cells are
// blank checkboxes on days the class meets and dashes on days it does
// not; the sheet is filled in by hand at the court.
type ReportService struct {
	classes classCatalog
	roster  rosterReader
	audit   auditSink
	csv     sheetRenderer
	pdf     sheetRenderer
	enabled bool
	logger  *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(classes classCatalog, roster rosterReader, audit auditSink, enabled bool, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		classes: classes,
		roster:  roster,
		audit:   audit,
		csv:     export.NewCSVRenderer(),
		pdf:     export.NewPDFRenderer(),
		enabled: enabled,
		logger:  logger,
	}
}

// MonthlySheet renders the attendance sheet for one month. An empty
// classID covers every active class.
func (s *ReportService) MonthlySheet(ctx context.Context, year int, month time.Month, classID string, format ReportFormat, actor *models.JWTClaims) (*ReportFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report exports are disabled")
	}
	if year < 2000 || year > 2100 || month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid report month")
	}

	classes, err := s.resolveClasses(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no classes to report on")
	}

	days := daysInMonth(year, month)
	sheet := export.Sheet{
		Title: fmt.Sprintf("Attendance - %s %d", month.String(), year),
		Days:  days,
	}
	for _, class := range classes {
		section, err := s.buildSection(ctx, class, year, month, days)
		if err != nil {
			return nil, err
		}
		sheet.Sections = append(sheet.Sections, section)
	}

	renderer := s.csv
	contentType := "text/csv"
	extension := "csv"
	if format == ReportFormatPDF {
		renderer = s.pdf
		contentType = "application/pdf"
		extension = "pdf"
	}
	content, err := renderer.Render(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance sheet")
	}

	s.emitAudit(ctx, actor, year, month, classID, string(format))
	return &ReportFile{
		Filename:    fmt.Sprintf("attendance-%04d-%02d.%s", year, month, extension),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *ReportService) resolveClasses(ctx context.Context, classID string) ([]models.SportClass, error) {
	if classID != "" {
		class, err := s.classes.FindByID(ctx, classID)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return []models.SportClass{*class}, nil
	}
	classes, _, err := s.classes.List(ctx, models.ClassFilter{Status: models.ClassStatusActive, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

func (s *ReportService) buildSection(ctx context.Context, class models.SportClass, year int, month time.Month, days int) (export.Section, error) {
	roster, err := s.roster.ListConfirmedByClass(ctx, class.ID)
	if err != nil {
		return export.Section{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}

	meets := meetingWeekdays(class.Days)
	section := export.Section{
		Heading: fmt.Sprintf("%s - %s (%s)", class.Title, class.TimeRange, class.Location),
	}
	for _, enrollment := range roster {
		row := export.StudentRow{Name: enrollment.StudentName, Cells: make([]string, days)}
		for day := 1; day <= days; day++ {
			weekday := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday()
			if meets[weekday] {
				row.Cells[day-1] = "[ ]"
			} else {
				row.Cells[day-1] = "---"
			}
		}
		section.Students = append(section.Students, row)
	}
	return section, nil
}

func (s *ReportService) emitAudit(ctx context.Context, actor *models.JWTClaims, year int, month time.Month, classID, format string) {
	if s.audit == nil {
		return
	}
	scope := "all active classes"
	if classID != "" {
		scope = "class " + classID
	}
	entry := &models.AuditLog{
		ActorID:   actorID(actor),
		ActorName: actorName(actor),
		ActorRole: actorRole(actor),
		Action:    models.AuditActionExportReport,
		Details:   fmt.Sprintf("Exported %s attendance sheet for %s %d covering %s", strings.ToUpper(format), month, year, scope),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record report audit", zap.Error(err))
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// meetingWeekdays maps the class schedule to weekday flags. Unknown day
// labels are skipped rather than failing the whole sheet.
func meetingWeekdays(days []string) map[time.Weekday]bool {
	meets := make(map[time.Weekday]bool, len(days))
	for _, day := range days {
		if weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]; ok {
			meets[weekday] = true
		}
	}
	return meets
}
