package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type attendanceRepository interface {
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

// AttendanceEntry is one line of a submitted roll call.
type AttendanceEntry struct {
	StudentID     string  `json:"student_id" validate:"required"`
	Present       bool    `json:"present"`
	Justification *string `json:"justification,omitempty"`
}

// SubmitAttendanceRequest carries a full roll call for one class session.
type SubmitAttendanceRequest struct {
	ClassID string            `json:"class_id" validate:"required"`
	Date    string            `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService records roll calls taken by class analysts.
// Resubmitting the same session overwrites the earlier records, so a
// corrected roll call replaces the mistaken one with no residue.
type AttendanceService struct {
	repo      attendanceRepository
	classes   classReader
	audit     auditSink
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, classes classReader, audit auditSink, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, classes: classes, audit: audit, validator: validate, logger: logger}
}

// Submit records one session's roll call.
func (s *AttendanceService) Submit(ctx context.Context, req SubmitAttendanceRequest, actor *models.JWTClaims) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid attendance date")
	}
	class, err := s.loadClass(ctx, req.ClassID)
	if err != nil {
		return err
	}
	if actor != nil && actor.Role == models.RoleAnalyst && actor.UserID != class.AnalystID {
		return appErrors.Clone(appErrors.ErrForbidden, "class is assigned to another analyst")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		records = append(records, models.AttendanceRecord{
			ClassID:       class.ID,
			Date:          date,
			StudentID:     entry.StudentID,
			Present:       entry.Present,
			Justification: entry.Justification,
		})
	}
	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.emitAudit(ctx, actor, class, date, len(records))
	return nil
}

// List returns attendance records matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

func (s *AttendanceService) loadClass(ctx context.Context, id string) (*models.SportClass, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *AttendanceService) emitAudit(ctx context.Context, actor *models.JWTClaims, class *models.SportClass, date time.Time, count int) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ActorID:   actorID(actor),
		ActorName: actorName(actor),
		ActorRole: actorRole(actor),
		Action:    models.AuditActionSubmitAttendance,
		Details:   fmt.Sprintf("Recorded attendance for %s on %s (%d students)", class.Title, date.Format("2006-01-02"), count),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record attendance audit", zap.Error(err))
	}
}
