package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

type enrollmentCanceller interface {
	CancelAllForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) error
}

// CreateUserRequest describes a new account of any role. Student-only
// fields are ignored for staff roles.
type CreateUserRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	FullName     string  `json:"full_name" validate:"required"`
	Role         string  `json:"role" validate:"required"`
	CPF          *string `json:"cpf,omitempty"`
	Ref          *string `json:"ref,omitempty"`
	BirthDate    *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Phone        *string `json:"phone,omitempty"`
	Cellphone    *string `json:"cellphone,omitempty"`
	Address      *string `json:"address,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`

	GuardianName  *string `json:"guardian_name,omitempty"`
	GuardianCPF   *string `json:"guardian_cpf,omitempty"`
	GuardianEmail *string `json:"guardian_email,omitempty" validate:"omitempty,email"`
	GuardianPhone *string `json:"guardian_phone,omitempty"`
}

// UpdateUserRequest carries a partial profile update. Role never changes
// after creation.
type UpdateUserRequest struct {
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName     *string `json:"full_name,omitempty"`
	Active       *bool   `json:"active,omitempty"`
	CPF          *string `json:"cpf,omitempty"`
	Ref          *string `json:"ref,omitempty"`
	BirthDate    *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Phone        *string `json:"phone,omitempty"`
	Cellphone    *string `json:"cellphone,omitempty"`
	Address      *string `json:"address,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`

	GuardianName  *string `json:"guardian_name,omitempty"`
	GuardianCPF   *string `json:"guardian_cpf,omitempty"`
	GuardianEmail *string `json:"guardian_email,omitempty" validate:"omitempty,email"`
	GuardianPhone *string `json:"guardian_phone,omitempty"`
}

// UserService manages accounts across all four roles.
type UserService struct {
	repo        userRepository
	enrollments enrollmentCanceller
	audit       auditSink
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(repo userRepository, enrollments enrollmentCanceller, audit auditSink, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, enrollments: enrollments, audit: audit, validator: validate, logger: logger}
}

// List returns users with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create registers a new account. Student minors must have a guardian on
// file before the account is accepted.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	role := models.UserRole(req.Role)
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:         req.Email,
		FullName:      req.FullName,
		Role:          role,
		Active:        true,
		CPF:           req.CPF,
		Ref:           req.Ref,
		BirthDate:     birthDate,
		Phone:         req.Phone,
		Cellphone:     req.Cellphone,
		Address:       req.Address,
		Neighborhood:  req.Neighborhood,
		GuardianName:  req.GuardianName,
		GuardianCPF:   req.GuardianCPF,
		GuardianEmail: req.GuardianEmail,
		GuardianPhone: req.GuardianPhone,
	}
	if err := requireGuardianForMinor(user); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.emitAudit(ctx, actor, models.AuditActionAddUser, fmt.Sprintf("Created %s account for %s", role, user.FullName))
	return user, nil
}

// Update applies a partial profile change.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.CPF != nil {
		user.CPF = req.CPF
	}
	if req.Ref != nil {
		user.Ref = req.Ref
	}
	if req.BirthDate != nil {
		birthDate, err := parseBirthDate(req.BirthDate)
		if err != nil {
			return nil, err
		}
		user.BirthDate = birthDate
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Cellphone != nil {
		user.Cellphone = req.Cellphone
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Neighborhood != nil {
		user.Neighborhood = req.Neighborhood
	}
	if req.GuardianName != nil {
		user.GuardianName = req.GuardianName
	}
	if req.GuardianCPF != nil {
		user.GuardianCPF = req.GuardianCPF
	}
	if req.GuardianEmail != nil {
		user.GuardianEmail = req.GuardianEmail
	}
	if req.GuardianPhone != nil {
		user.GuardianPhone = req.GuardianPhone
	}
	if err := requireGuardianForMinor(user); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.emitAudit(ctx, actor, models.AuditActionUpdateUser, fmt.Sprintf("Updated account of %s", user.FullName))
	return user, nil
}

// Delete removes an account. A student's enrollments are canceled first
// so class counters stay consistent with the remaining rows.
func (s *UserService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor != nil && actor.UserID == id {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete own account")
	}

	if user.Role == models.RoleStudent && s.enrollments != nil {
		if err := s.enrollments.CancelAllForStudent(ctx, id, actor); err != nil {
			return err
		}
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		s.logger.Warn("failed to revoke refresh tokens on delete", zap.Error(err), zap.String("user_id", id))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.emitAudit(ctx, actor, models.AuditActionDeleteUser, fmt.Sprintf("Deleted %s account of %s", user.Role, user.FullName))
	return nil
}

func (s *UserService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, details string) {
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
		s.logger.Warn("failed to record user audit", zap.Error(err))
	}
}

func parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid birth date")
	}
	return &parsed, nil
}

// requireGuardianForMinor enforces the responsible-adult rule for
// student accounts under 18.
func requireGuardianForMinor(user *models.User) error {
	if user.Role != models.RoleStudent || user.BirthDate == nil {
		return nil
	}
	if user.AgeAt(time.Now()) >= 18 {
		return nil
	}
	if user.GuardianName == nil || *user.GuardianName == "" || user.GuardianPhone == nil || *user.GuardianPhone == "" {
		return appErrors.Clone(appErrors.ErrValidation, "guardian name and phone are required for minors")
	}
	return nil
}
