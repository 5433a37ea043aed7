package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/viva-esporte/arena-api/internal/dto"
	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.SportClass, int, error)
	FindByID(ctx context.Context, id string) (*models.SportClass, error)
	Create(ctx context.Context, class *models.SportClass) error
	Update(ctx context.Context, class *models.SportClass) error
	Delete(ctx context.Context, id string) error
}

const classListCacheKey = "classes:list:default"

type classListPage struct {
	Classes []models.SportClass `json:"classes"`
	Total   int                 `json:"total"`
}

// ClassService manages the sport class catalog. Coordinators mutate it
// directly; secretaries go through the request workflow, which lands in
// the same repository writes on approval.
type ClassService struct {
	repo      classRepository
	users     userReader
	ledger    *CapacityLedger
	audit     auditSink
	cache     cacheStore
	listTTL   time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, users userReader, ledger *CapacityLedger, audit auditSink, cache cacheStore, listTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		repo:      repo,
		users:     users,
		ledger:    ledger,
		audit:     audit,
		cache:     cache,
		listTTL:   listTTL,
		validator: validate,
		logger:    logger,
	}
}

// List returns classes with pagination metadata. The unfiltered first
// page is cached briefly since it backs the main catalog screen.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.SportClass, *models.Pagination, error) {
	cacheable := s.cache != nil && defaultClassFilter(filter)
	if cacheable {
		var page classListPage
		if err := s.cache.Get(ctx, classListCacheKey, &page); err == nil {
			return page.Classes, &models.Pagination{Page: 1, PageSize: 20, TotalCount: page.Total}, nil
		}
	}

	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	if cacheable {
		if err := s.cache.Set(ctx, classListCacheKey, classListPage{Classes: classes, Total: total}, s.listTTL); err != nil {
			s.logger.Debug("failed to cache class list", zap.Error(err))
		}
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.SportClass, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create inserts a new class with zeroed counters.
func (s *ClassService) Create(ctx context.Context, payload dto.ClassPayload, actor *models.JWTClaims) (*models.SportClass, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if payload.Status != "" && !payload.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class status")
	}
	analyst, err := s.resolveAnalyst(ctx, payload.AnalystID)
	if err != nil {
		return nil, err
	}
	status := payload.Status
	if status == "" {
		status = models.ClassStatusActive
	}

	class := &models.SportClass{
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
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.emitAudit(ctx, actor, models.AuditActionAddClass, fmt.Sprintf("Created class %s", class.Title))
	s.invalidateList(ctx)
	return class, nil
}

// Update applies a partial change to a class. Counters are never part of
// the patch; only the capacity ledger writes them.
func (s *ClassService) Update(ctx context.Context, id string, patch dto.ClassPatch, actor *models.JWTClaims) (*models.SportClass, error) {
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch changes nothing")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class status")
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
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
		analyst, err := s.resolveAnalyst(ctx, *patch.AnalystID)
		if err != nil {
			return nil, err
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
	if class.MaxAge < class.MinAge {
		return nil, appErrors.Clone(appErrors.ErrValidation, "max age below min age")
	}

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}

	s.emitAudit(ctx, actor, models.AuditActionUpdateClass, fmt.Sprintf("Updated class %s", class.Title))
	s.invalidateList(ctx)
	return class, nil
}

// Delete removes a class. Enrollment rows go with it through the foreign
// key cascade, so no counter bookkeeping remains.
func (s *ClassService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	class, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	s.emitAudit(ctx, actor, models.AuditActionDeleteClass, fmt.Sprintf("Deleted class %s", class.Title))
	s.invalidateList(ctx)
	return nil
}

// Reconcile rebuilds a class's cached counters from its enrollment rows.
func (s *ClassService) Reconcile(ctx context.Context, id string) error {
	if err := s.ledger.Reconcile(ctx, id); err != nil {
		return err
	}
	s.invalidateList(ctx)
	return nil
}

func (s *ClassService) resolveAnalyst(ctx context.Context, id string) (*models.User, error) {
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

func (s *ClassService) invalidateList(ctx context.Context) {
	if s.cache != nil {
		s.cache.Delete(ctx, classListCacheKey)
	}
}

func (s *ClassService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, details string) {
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
		s.logger.Warn("failed to record class audit", zap.Error(err))
	}
}

func defaultClassFilter(filter models.ClassFilter) bool {
	return filter.Modality == "" && filter.Status == "" && filter.AnalystID == "" &&
		filter.Search == "" && (filter.Page == 0 || filter.Page == 1) &&
		(filter.PageSize == 0 || filter.PageSize == 20) &&
		filter.SortBy == "" && filter.SortOrder == ""
}
