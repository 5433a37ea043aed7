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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, classID string) (bool, error)
	CountConfirmedByStudent(ctx context.Context, studentID string) (int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id string) error
	FirstWaiting(ctx context.Context, classID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.SportClass, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type requestCreator interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
}

type auditSink interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, notification models.Notification)
}

// EnrollStudentRequest describes an enrollment attempt.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

// EnrollResult is the outcome of an enrollment attempt. Success is false
// when the concurrency policy deferred the enrollment to coordinator
// approval; that path is a normal workflow outcome, not an error.
type EnrollResult struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
}

// CancelResult reports a cancellation plus an advisory pointer to the
// waitlist head when a confirmed seat opened up. Promotion never happens
// automatically; staff contact the student and enroll them by hand.
type CancelResult struct {
	Success     bool         `json:"success"`
	ClassTitle  string       `json:"class_title"`
	NextStudent *models.User `json:"next_student,omitempty"`
}

// EnrollmentService implements the capacity-allocation engine: seat
// versus waitlist placement, the concurrent-activity policy and the
// counter bookkeeping that goes with both.
type EnrollmentService struct {
	repo          enrollmentRepository
	classes       classReader
	users         userReader
	requests      requestCreator
	ledger        *CapacityLedger
	audit         auditSink
	notifications notificationDispatcher
	maxActivities int
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(
	repo enrollmentRepository,
	classes classReader,
	users userReader,
	requests requestCreator,
	ledger *CapacityLedger,
	audit auditSink,
	notifications notificationDispatcher,
	maxActivities int,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxActivities <= 0 {
		maxActivities = 3
	}
	return &EnrollmentService{
		repo:          repo,
		classes:       classes,
		users:         users,
		requests:      requests,
		ledger:        ledger,
		audit:         audit,
		notifications: notifications,
		maxActivities: maxActivities,
		validator:     validate,
		logger:        logger,
	}
}

// WithMetrics attaches an outcome counter and returns the service.
func (s *EnrollmentService) WithMetrics(metrics *MetricsService) *EnrollmentService {
	s.metrics = metrics
	return s
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// ListByStudent returns every enrollment of a student in creation order.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student enrollments")
	}
	return enrollments, nil
}

// Enroll runs the full allocation sequence for one student and one class.
// Checks run in a fixed order: references, duplicate guard, concurrency
// policy, then seat-or-waitlist placement.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest, actor *models.JWTClaims) (*EnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	class, err := s.loadClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsActive(ctx, student.ID, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment, "")
	}

	confirmed, err := s.repo.CountConfirmedByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count confirmed enrollments")
	}
	if confirmed >= s.maxActivities {
		if err := s.deferToOverride(ctx, student, class, actor); err != nil {
			return nil, err
		}
		s.metrics.RecordEnrollment("deferred")
		return &EnrollResult{
			Success: false,
			Message: fmt.Sprintf("Limit of %d activities reached. An approval request was sent to the coordination.", s.maxActivities),
		}, nil
	}

	enrollment, err := s.allocate(ctx, student, class)
	if err != nil {
		return nil, err
	}

	s.emitEnrollAudit(ctx, actor, student, class, enrollment.Status)
	s.notifyAnalyst(ctx, actor, student, class, enrollment.Status)

	message := fmt.Sprintf("%s enrolled in %s.", student.FullName, class.Title)
	outcome := "confirmed"
	if enrollment.Status == models.EnrollmentStatusWaitingList {
		message = fmt.Sprintf("%s is full. %s was placed on the waiting list.", class.Title, student.FullName)
		outcome = "waitlisted"
	}
	s.metrics.RecordEnrollment(outcome)
	return &EnrollResult{Success: true, Message: message, Enrollment: enrollment}, nil
}

// AllocateSeat places a student into a class bypassing the duplicate and
// concurrency checks. Used when a coordinator approves an enrollment
// override: the placement itself still respects capacity, so a class
// that filled up while the request sat pending yields a waitlist seat.
func (s *EnrollmentService) AllocateSeat(ctx context.Context, studentID, studentName, classID string) (*models.Enrollment, error) {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	student := &models.User{ID: studentID, FullName: studentName}
	if loaded, err := s.users.FindByID(ctx, studentID); err == nil {
		student = loaded
	}
	return s.allocate(ctx, student, class)
}

// allocate is the placement core: the capacity check, the enrollment row
// and the counter increment run as one unit under the class lock.
func (s *EnrollmentService) allocate(ctx context.Context, student *models.User, class *models.SportClass) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	err := s.ledger.WithClass(class.ID, func() error {
		full, err := s.ledger.IsFull(ctx, class.ID)
		if err != nil {
			return err
		}
		status := models.EnrollmentStatusConfirmed
		if full {
			status = models.EnrollmentStatusWaitingList
		}
		enrollment = &models.Enrollment{
			ClassID:     class.ID,
			StudentID:   student.ID,
			StudentName: student.FullName,
			Status:      status,
		}
		if err := s.repo.Create(ctx, enrollment); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
		if status == models.EnrollmentStatusConfirmed {
			return s.ledger.IncrementConfirmed(ctx, class.ID)
		}
		return s.ledger.IncrementWaiting(ctx, class.ID)
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Cancel removes an enrollment and releases its counter. When a confirmed
// seat was freed the result carries the waitlist head for staff follow-up.
func (s *EnrollmentService) Cancel(ctx context.Context, enrollmentID string, actor *models.JWTClaims) (*CancelResult, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	class, err := s.loadClass(ctx, enrollment.ClassID)
	if err != nil {
		return nil, err
	}

	if err := s.release(ctx, enrollment); err != nil {
		return nil, err
	}
	s.emitCancelAudit(ctx, actor, enrollment, class)

	result := &CancelResult{Success: true, ClassTitle: class.Title}
	if enrollment.Status == models.EnrollmentStatusConfirmed {
		next, err := s.repo.FirstWaiting(ctx, class.ID)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect waiting list")
		}
		if next != nil {
			if candidate, err := s.users.FindByID(ctx, next.StudentID); err == nil {
				result.NextStudent = candidate
			} else {
				result.NextStudent = &models.User{ID: next.StudentID, FullName: next.StudentName}
			}
		}
	}
	return result, nil
}

// CancelAllForStudent removes every enrollment of a student, releasing
// counters as it goes. Called when a student account is deleted; no
// waitlist advisory is produced.
func (s *EnrollmentService) CancelAllForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) error {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student enrollments")
	}
	for i := range enrollments {
		enrollment := enrollments[i]
		if err := s.release(ctx, &enrollment); err != nil {
			if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
				continue
			}
			return err
		}
		class, err := s.loadClass(ctx, enrollment.ClassID)
		if err != nil {
			class = &models.SportClass{ID: enrollment.ClassID, Title: "removed class"}
		}
		s.emitCancelAudit(ctx, actor, &enrollment, class)
	}
	return nil
}

// release deletes the row and decrements the matching counter under the
// class lock. The delete runs first so a concurrent double cancel decrements
// exactly once.
func (s *EnrollmentService) release(ctx context.Context, enrollment *models.Enrollment) error {
	return s.ledger.WithClass(enrollment.ClassID, func() error {
		if err := s.repo.Delete(ctx, enrollment.ID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
		}
		switch {
		case enrollment.Status.CountsAsSeat():
			return s.ledger.DecrementConfirmed(ctx, enrollment.ClassID)
		case enrollment.Status == models.EnrollmentStatusWaitingList:
			return s.ledger.DecrementWaiting(ctx, enrollment.ClassID)
		}
		return nil
	})
}

// deferToOverride records a pending override request and fans the news
// out to every coordinator.
func (s *EnrollmentService) deferToOverride(ctx context.Context, student *models.User, class *models.SportClass, actor *models.JWTClaims) error {
	request := &models.ChangeRequest{
		Type:          models.RequestTypeEnrollmentOverride,
		ClassID:       class.ID,
		ClassTitle:    class.Title,
		RequesterID:   actorID(actor),
		RequesterName: actorName(actor),
		StudentID:     &student.ID,
		StudentName:   &student.FullName,
		Status:        models.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create override request")
	}

	coordinators, err := s.users.ListByRole(ctx, models.RoleCoordinator)
	if err != nil {
		s.logger.Warn("failed to list coordinators for override notification", zap.Error(err))
		return nil
	}
	for _, coordinator := range coordinators {
		s.notifications.Dispatch(ctx, models.Notification{
			RecipientID: coordinator.ID,
			Title:       "Enrollment approval needed",
			Message: fmt.Sprintf("%s requested to enroll %s in %s, but the student already has %d confirmed activities. Approval is required.",
				actorName(actor), student.FullName, class.Title, s.maxActivities),
		})
	}
	return nil
}

// notifyAnalyst sends the class analyst the enrollment context they need
// to follow up: who registered the student, the student's age at the
// time of enrollment and a contact number.
func (s *EnrollmentService) notifyAnalyst(ctx context.Context, actor *models.JWTClaims, student *models.User, class *models.SportClass, status models.EnrollmentStatus) {
	if class.AnalystID == "" {
		return
	}
	title := "New enrollment"
	if status == models.EnrollmentStatusWaitingList {
		title = "New waiting list entry"
	}
	phone := student.ContactPhone()
	if phone == "" {
		phone = "no contact on file"
	}
	birth := ""
	if student.BirthDate != nil {
		birth = student.BirthDate.Format("2006-01-02")
	}
	s.notifications.Dispatch(ctx, models.Notification{
		RecipientID: class.AnalystID,
		Title:       title,
		Message:     fmt.Sprintf("%s enrolled %s in class %s.", actorName(actor), student.FullName, class.Title),
		Details: &models.NotificationDetails{
			RegistrarName:    actorName(actor),
			StudentName:      student.FullName,
			StudentBirthDate: birth,
			StudentAge:       student.AgeAt(time.Now()),
			StudentPhone:     phone,
		},
	})
}

func (s *EnrollmentService) emitEnrollAudit(ctx context.Context, actor *models.JWTClaims, student *models.User, class *models.SportClass, status models.EnrollmentStatus) {
	if s.audit == nil {
		return
	}
	placement := "Confirmed"
	if status == models.EnrollmentStatusWaitingList {
		placement = "Waiting list"
	}
	entry := &models.AuditLog{
		ActorID:   actorID(actor),
		ActorName: actorName(actor),
		ActorRole: actorRole(actor),
		Action:    models.AuditActionEnrollStudent,
		Details:   fmt.Sprintf("Enrolled %s in %s (%s)", student.FullName, class.Title, placement),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record enrollment audit", zap.Error(err))
	}
}

func (s *EnrollmentService) emitCancelAudit(ctx context.Context, actor *models.JWTClaims, enrollment *models.Enrollment, class *models.SportClass) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ActorID:   actorID(actor),
		ActorName: actorName(actor),
		ActorRole: actorRole(actor),
		Action:    models.AuditActionCancelEnrollment,
		Details:   fmt.Sprintf("Canceled enrollment of %s in %s", enrollment.StudentName, class.Title),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record cancellation audit", zap.Error(err))
	}
}

func (s *EnrollmentService) loadStudent(ctx context.Context, id string) (*models.User, error) {
	student, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student account is inactive")
	}
	return student, nil
}

func (s *EnrollmentService) loadClass(ctx context.Context, id string) (*models.SportClass, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func actorID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}

func actorName(actor *models.JWTClaims) string {
	if actor == nil {
		return "system"
	}
	return actor.FullName
}

func actorRole(actor *models.JWTClaims) models.UserRole {
	if actor == nil {
		return ""
	}
	return actor.Role
}
