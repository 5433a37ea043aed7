package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	revoked []string
	deleted []string
	nextID  int
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var list []models.User
	for _, u := range m.users {
		list = append(list, *u)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var list []models.User
	for _, u := range m.users {
		if u.Role == role {
			list = append(list, *u)
		}
	}
	return list, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for id, u := range m.users {
		if u.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	if user.ID == "" {
		m.nextID++
		user.ID = "user-new"
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

type mockCanceller struct {
	canceled []string
}

func (m *mockCanceller) CancelAllForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) error {
	m.canceled = append(m.canceled, studentID)
	return nil
}

func newTestUserService(t *testing.T) (*UserService, *mockUserRepo, *mockCanceller, *mockAuditSink) {
	t.Helper()
	repo := &mockUserRepo{users: map[string]*models.User{
		"coord-1": {ID: "coord-1", Email: "dora@arena.org", FullName: "Dora Reis", Role: models.RoleCoordinator, Active: true},
	}}
	canceller := &mockCanceller{}
	audit := &mockAuditSink{}
	svc := NewUserService(repo, canceller, audit, nil, nil)
	return svc, repo, canceller, audit
}

func strptr(s string) *string { return &s }

func TestCreateUserHashesPassword(t *testing.T) {
	svc, repo, _, audit := newTestUserService(t)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "eva@arena.org",
		Password: "hunter2hunter2",
		FullName: "Eva Prado",
		Role:     "SECRETARY",
	}, coordinatorClaims())
	require.NoError(t, err)

	assert.True(t, user.Active)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
	assert.Contains(t, repo.users, user.ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionAddUser, audit.entries[0].Action)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestUserService(t)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "dora@arena.org",
		Password: "hunter2hunter2",
		FullName: "Impostor",
		Role:     "SECRETARY",
	}, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateMinorStudentRequiresGuardian(t *testing.T) {
	svc, _, _, _ := newTestUserService(t)

	req := CreateUserRequest{
		Email:     "kid@arena.org",
		Password:  "hunter2hunter2",
		FullName:  "Ana Souza",
		Role:      "STUDENT",
		BirthDate: strptr("2015-03-10"),
	}
	_, err := svc.Create(context.Background(), req, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.GuardianName = strptr("Marta Souza")
	req.GuardianPhone = strptr("555-0101")
	user, err := svc.Create(context.Background(), req, coordinatorClaims())
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
}

func TestCreateAdultStudentNeedsNoGuardian(t *testing.T) {
	svc, _, _, _ := newTestUserService(t)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:     "adult@arena.org",
		Password:  "hunter2hunter2",
		FullName:  "Bruno Lima",
		Role:      "STUDENT",
		BirthDate: strptr("1990-01-15"),
	}, coordinatorClaims())
	require.NoError(t, err)
}

func TestUpdateUserMergesFields(t *testing.T) {
	svc, repo, _, _ := newTestUserService(t)
	repo.users["sec-1"] = &models.User{ID: "sec-1", Email: "eva@arena.org", FullName: "Eva Prado", Role: models.RoleSecretary, Active: true}

	updated, err := svc.Update(context.Background(), "sec-1", UpdateUserRequest{
		Phone: strptr("555-0199"),
	}, coordinatorClaims())
	require.NoError(t, err)

	assert.Equal(t, "Eva Prado", updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0199", *updated.Phone)
	// role is immutable through updates
	assert.Equal(t, models.RoleSecretary, updated.Role)
}

func TestDeleteStudentCancelsEnrollmentsFirst(t *testing.T) {
	svc, repo, canceller, audit := newTestUserService(t)
	repo.users["student-1"] = &models.User{ID: "student-1", Email: "ana@arena.org", FullName: "Ana Souza", Role: models.RoleStudent, Active: true}

	err := svc.Delete(context.Background(), "student-1", coordinatorClaims())
	require.NoError(t, err)

	assert.Equal(t, []string{"student-1"}, canceller.canceled)
	assert.Equal(t, []string{"student-1"}, repo.revoked)
	assert.Equal(t, []string{"student-1"}, repo.deleted)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionDeleteUser, audit.entries[0].Action)
}

func TestDeleteStaffSkipsEnrollmentCleanup(t *testing.T) {
	svc, repo, canceller, _ := newTestUserService(t)
	repo.users["sec-1"] = &models.User{ID: "sec-1", Email: "eva@arena.org", FullName: "Eva Prado", Role: models.RoleSecretary, Active: true}

	require.NoError(t, svc.Delete(context.Background(), "sec-1", coordinatorClaims()))
	assert.Empty(t, canceller.canceled)
}

func TestDeleteOwnAccountRejected(t *testing.T) {
	svc, repo, _, _ := newTestUserService(t)

	err := svc.Delete(context.Background(), "coord-1", coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.users, "coord-1")
}
