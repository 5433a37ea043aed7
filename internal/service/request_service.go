package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viva-esporte/arena-api/internal/dto"
	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type requestRepository interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*models.ChangeRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.ChangeRequest, error)
	Resolve(ctx context.Context, id string, status models.RequestStatus, resolvedBy string, resolvedAt time.Time) error
}

type classWriter interface {
	FindByID(ctx context.Context, id string) (*models.SportClass, error)
	Create(ctx context.Context, class *models.SportClass) error
	Update(ctx context.Context, class *models.SportClass) error
}

type seatAllocator interface {
	AllocateSeat(ctx context.Context, studentID, studentName, classID string) (*models.Enrollment, error)
}

// RequestService runs the coordinator approval workflow. Analysts and
// secretaries submit CREATE and UPDATE requests; the allocation engine
// submits ENROLLMENT_OVERRIDE requests. Resolution applies the stored
// payload exactly once and never reverses.
type RequestService struct {
	repo          requestRepository
	classes       classWriter
	users         userReader
	allocator     seatAllocator
	audit         auditSink
	notifications notificationDispatcher
	cache         cacheStore
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRequestService constructs RequestService.
func NewRequestService(
	repo requestRepository,
	classes classWriter,
	users userReader,
	allocator seatAllocator,
	audit auditSink,
	notifications notificationDispatcher,
	cache cacheStore,
	validate *validator.Validate,
	logger *zap.Logger,
) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		repo:          repo,
		classes:       classes,
		users:         users,
		allocator:     allocator,
		audit:         audit,
		notifications: notifications,
		cache:         cache,
		validator:     validate,
		logger:        logger,
	}
}

// List returns change requests matching the filter, newest first.
func (s *RequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.ChangeRequest, error) {
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, nil
}

// Get returns a single change request.
func (s *RequestService) Get(ctx context.Context, id string) (*models.ChangeRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

// SubmitCreate queues a new-class definition for coordinator approval.
// The class id is assigned now so the approved class keeps a stable
// reference; counters always start at zero on approval.
func (s *RequestService) SubmitCreate(ctx context.Context, payload dto.ClassPayload, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if payload.Status != "" && !payload.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class status")
	}
	if _, err := s.loadAnalyst(ctx, payload.AnalystID); err != nil {
		return nil, err
	}

	changes, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode class payload")
	}
	request := &models.ChangeRequest{
		Type:             models.RequestTypeCreate,
		ClassID:          uuid.NewString(),
		ClassTitle:       payload.Title,
		RequesterID:      actorID(actor),
		RequesterName:    actorName(actor),
		RequestedChanges: changes,
		Status:           models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.emitAudit(ctx, actor, models.AuditActionRequestCreate,
		fmt.Sprintf("Requested creation of class %s", payload.Title))
	s.notifyCoordinators(ctx, "Class creation pending approval",
		fmt.Sprintf("%s requested the creation of class %s.", actorName(actor), payload.Title))
	return request, nil
}

// SubmitUpdate queues a partial class change for coordinator approval.
func (s *RequestService) SubmitUpdate(ctx context.Context, classID string, patch dto.ClassPatch, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch changes nothing")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class status")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if patch.AnalystID != nil {
		if _, err := s.loadAnalyst(ctx, *patch.AnalystID); err != nil {
			return nil, err
		}
	}

	changes, err := json.Marshal(patch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode class patch")
	}
	request := &models.ChangeRequest{
		Type:             models.RequestTypeUpdate,
		ClassID:          class.ID,
		ClassTitle:       class.Title,
		RequesterID:      actorID(actor),
		RequesterName:    actorName(actor),
		RequestedChanges: changes,
		Status:           models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.emitAudit(ctx, actor, models.AuditActionRequestUpdate,
		fmt.Sprintf("Requested changes to class %s", class.Title))
	s.notifyCoordinators(ctx, "Class update pending approval",
		fmt.Sprintf("%s requested changes to class %s.", actorName(actor), class.Title))
	return request, nil
}

// Resolve applies a coordinator decision to a pending request. The row
// update is guarded on the PENDING status, so two concurrent resolutions
// of the same request apply at most one.
func (s *RequestService) Resolve(ctx context.Context, id string, decision dto.ResolveRequest, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyResolved, "")
	}

	status := models.RequestStatusRejected
	if decision.Approved {
		status = models.RequestStatusApproved
	}
	resolvedAt := time.Now().UTC()
	if err := s.repo.Resolve(ctx, id, status, actorID(actor), resolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrAlreadyResolved, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve request")
	}

	if decision.Approved {
		if err := s.apply(ctx, request); err != nil {
			return nil, err
		}
	}

	if decision.Approved || request.Type != models.RequestTypeEnrollmentOverride {
		verdict := "Rejected"
		if decision.Approved {
			verdict = "Approved"
		}
		s.emitAudit(ctx, actor, models.AuditActionResolveRequest,
			fmt.Sprintf("%s %s request for class %s", verdict, request.Type, request.ClassTitle))
	}
	s.notifyRequester(ctx, request, decision.Approved)

	resolvedBy := actorID(actor)
	request.Status = status
	request.ResolvedBy = &resolvedBy
	request.ResolvedAt = &resolvedAt
	return request, nil
}

// apply executes the approved change. Each request type has its own
// payload shape; a payload that no longer decodes is a data bug and
// surfaces as an internal error after the status flip.
func (s *RequestService) apply(ctx context.Context, request *models.ChangeRequest) error {
	switch request.Type {
	case models.RequestTypeCreate:
		return s.applyCreate(ctx, request)
	case models.RequestTypeUpdate:
		return s.applyUpdate(ctx, request)
	case models.RequestTypeEnrollmentOverride:
		return s.applyOverride(ctx, request)
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown request type %s", request.Type))
}

func (s *RequestService) applyCreate(ctx context.Context, request *models.ChangeRequest) error {
	var payload dto.ClassPayload
	if err := json.Unmarshal(request.RequestedChanges, &payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode class payload")
	}
	analyst, err := s.loadAnalyst(ctx, payload.AnalystID)
	if err != nil {
		return err
	}
	status := payload.Status
	if status == "" {
		status = models.ClassStatusActive
	}
	class := &models.SportClass{
		ID:          request.ClassID,
		Title:       payload.Title,
		Description: payload.Description,
		Modality:    payload.Modality,
		AnalystID:   analyst.ID,
		AnalystName: analyst.FullName,
		Days:        payload.Days,
		TimeRange:   payload.TimeRange,
		Location:    payload.Location,
		Capacity:    payload.Capacity,
		MinAge:      payload.MinAge,
		MaxAge:      payload.MaxAge,
		Status:      status,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approved class")
	}
	s.invalidateClassList(ctx)
	return nil
}

func (s *RequestService) applyUpdate(ctx context.Context, request *models.ChangeRequest) error {
	var patch dto.ClassPatch
	if err := json.Unmarshal(request.RequestedChanges, &patch); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode class patch")
	}
	class, err := s.classes.FindByID(ctx, request.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if patch.Title != nil {
		class.Title = *patch.Title
	}
	if patch.Description != nil {
		class.Description = patch.Description
	}
	if patch.Modality != nil {
		class.Modality = *patch.Modality
	}
	if patch.AnalystID != nil {
		analyst, err := s.loadAnalyst(ctx, *patch.AnalystID)
		if err != nil {
			return err
		}
		class.AnalystID = analyst.ID
		class.AnalystName = analyst.FullName
	}
	if patch.Days != nil {
		class.Days = patch.Days
	}
	if patch.TimeRange != nil {
		class.TimeRange = *patch.TimeRange
	}
	if patch.Location != nil {
		class.Location = *patch.Location
	}
	if patch.Capacity != nil {
		class.Capacity = *patch.Capacity
	}
	if patch.MinAge != nil {
		class.MinAge = *patch.MinAge
	}
	if patch.MaxAge != nil {
		class.MaxAge = *patch.MaxAge
	}
	if patch.Status != nil {
		class.Status = *patch.Status
	}

	if err := s.classes.Update(ctx, class); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approved class")
	}
	s.invalidateClassList(ctx)
	return nil
}

func (s *RequestService) applyOverride(ctx context.Context, request *models.ChangeRequest) error {
	if request.StudentID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "override request has no student")
	}
	studentName := "Student"
	if request.StudentName != nil && *request.StudentName != "" {
		studentName = *request.StudentName
	}
	if _, err := s.allocator.AllocateSeat(ctx, *request.StudentID, studentName, request.ClassID); err != nil {
		return err
	}
	return nil
}

func (s *RequestService) loadAnalyst(ctx context.Context, id string) (*models.User, error) {
	analyst, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analyst not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load analyst")
	}
	if analyst.Role != models.RoleAnalyst {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assigned user is not an analyst")
	}
	return analyst, nil
}

func (s *RequestService) invalidateClassList(ctx context.Context) {
	if s.cache != nil {
		s.cache.Delete(ctx, classListCacheKey)
	}
}

func (s *RequestService) notifyCoordinators(ctx context.Context, title, message string) {
	if s.notifications == nil {
		return
	}
	coordinators, err := s.users.ListByRole(ctx, models.RoleCoordinator)
	if err != nil {
		s.logger.Warn("failed to list coordinators for request notification", zap.Error(err))
		return
	}
	for _, coordinator := range coordinators {
		s.notifications.Dispatch(ctx, models.Notification{
			RecipientID: coordinator.ID,
			Title:       title,
			Message:     message,
		})
	}
}

func (s *RequestService) notifyRequester(ctx context.Context, request *models.ChangeRequest, approved bool) {
	if s.notifications == nil || request.RequesterID == "" {
		return
	}
	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	s.notifications.Dispatch(ctx, models.Notification{
		RecipientID: request.RequesterID,
		Title:       "Request " + verdict,
		Message:     fmt.Sprintf("Your %s request for class %s was %s.", request.Type, request.ClassTitle, verdict),
	})
}

func (s *RequestService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, details string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ActorID:   actorID(actor),
		ActorName: actorName(actor),
		ActorRole: actorRole(actor),
		Action:    action,
		Details:   details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record request audit", zap.Error(err))
	}
}
