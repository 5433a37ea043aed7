package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	confirmed   map[string]int
	nextID      int
	deleted     []string
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		list = append(list, e)
	}
	return list, len(list), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, classID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) CountConfirmedByStudent(ctx context.Context, studentID string) (int, error) {
	return m.confirmed[studentID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		m.nextID++
		enrollment.ID = "enroll-" + string(rune('a'+m.nextID))
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEnrollmentRepo) FirstWaiting(ctx context.Context, classID string) (*models.Enrollment, error) {
	var ids []string
	for id, e := range m.enrollments {
		if e.ClassID == classID && e.Status == models.EnrollmentStatusWaitingList {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, sql.ErrNoRows
	}
	sort.Strings(ids)
	e := m.enrollments[ids[0]]
	return &e, nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			list = append(list, e)
		}
	}
	return list, nil
}

type mockClassStore struct {
	classes map[string]*models.SportClass
}

func (m *mockClassStore) FindByID(ctx context.Context, id string) (*models.SportClass, error) {
	if c, ok := m.classes[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassStore) Counters(ctx context.Context, classID string) (*models.ClassCounters, error) {
	c, ok := m.classes[classID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ClassCounters{
		Capacity:         c.Capacity,
		EnrolledCount:    c.EnrolledCount,
		WaitingListCount: c.WaitingListCount,
	}, nil
}

func (m *mockClassStore) AdjustCounters(ctx context.Context, classID string, confirmedDelta, waitingDelta int) error {
	c, ok := m.classes[classID]
	if !ok {
		return sql.ErrNoRows
	}
	c.EnrolledCount += confirmedDelta
	if c.EnrolledCount < 0 {
		c.EnrolledCount = 0
	}
	c.WaitingListCount += waitingDelta
	if c.WaitingListCount < 0 {
		c.WaitingListCount = 0
	}
	return nil
}

func (m *mockClassStore) RecountFromEnrollments(ctx context.Context, classID string) error {
	if _, ok := m.classes[classID]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

type mockUserStore struct {
	users map[string]*models.User
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserStore) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var list []models.User
	for _, u := range m.users {
		if u.Role == role {
			list = append(list, *u)
		}
	}
	return list, nil
}

type mockRequestCreator struct {
	created []models.ChangeRequest
}

func (m *mockRequestCreator) Create(ctx context.Context, request *models.ChangeRequest) error {
	if request.ID == "" {
		request.ID = "request-1"
	}
	m.created = append(m.created, *request)
	return nil
}

type mockAuditSink struct {
	entries []models.AuditLog
}

func (m *mockAuditSink) Append(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

type mockDispatcher struct {
	sent []models.Notification
}

func (m *mockDispatcher) Dispatch(ctx context.Context, notification models.Notification) {
	m.sent = append(m.sent, notification)
}

func newTestEnrollmentService(t *testing.T) (*EnrollmentService, *mockEnrollmentRepo, *mockClassStore, *mockUserStore, *mockRequestCreator, *mockAuditSink, *mockDispatcher) {
	t.Helper()
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{}, confirmed: map[string]int{}}
	classes := &mockClassStore{classes: map[string]*models.SportClass{
		"judo": {ID: "judo", Title: "Judo Youth", AnalystID: "analyst-1", Capacity: 2, Status: models.ClassStatusActive},
	}}
	users := &mockUserStore{users: map[string]*models.User{
		"student-1": {ID: "student-1", FullName: "Ana Souza", Role: models.RoleStudent, Active: true},
		"student-2": {ID: "student-2", FullName: "Bruno Lima", Role: models.RoleStudent, Active: true},
		"analyst-1": {ID: "analyst-1", FullName: "Carla Dias", Role: models.RoleAnalyst, Active: true},
		"coord-1":   {ID: "coord-1", FullName: "Dora Reis", Role: models.RoleCoordinator, Active: true},
	}}
	requests := &mockRequestCreator{}
	audit := &mockAuditSink{}
	dispatcher := &mockDispatcher{}
	ledger := NewCapacityLedger(classes, nil)
	svc := NewEnrollmentService(repo, classes, users, requests, ledger, audit, dispatcher, 3, nil, nil)
	return svc, repo, classes, users, requests, audit, dispatcher
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "secretary-1", FullName: "Eva Prado", Role: models.RoleSecretary}
}

func TestEnrollConfirmsWhenSeatsRemain(t *testing.T) {
	svc, _, classes, _, _, audit, dispatcher := newTestEnrollmentService(t)

	result, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "student-1", ClassID: "judo"}, staffClaims())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Success)
	require.NotNil(t, result.Enrollment)
	assert.Equal(t, models.EnrollmentStatusConfirmed, result.Enrollment.Status)
	assert.Equal(t, 1, classes.classes["judo"].EnrolledCount)
	assert.Equal(t, 0, classes.classes["judo"].WaitingListCount)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionEnrollStudent, audit.entries[0].Action)
	assert.Contains(t, audit.entries[0].Details, "Confirmed")

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "analyst-1", dispatcher.sent[0].RecipientID)
	assert.Equal(t, "New enrollment", dispatcher.sent[0].Title)
	require.NotNil(t, dispatcher.sent[0].Details)
	assert.Equal(t, "Eva Prado", dispatcher.sent[0].Details.RegistrarName)
}

func TestEnrollWaitlistsWhenClassFull(t *testing.T) {
	svc, _, classes, _, _, _, dispatcher := newTestEnrollmentService(t)
	classes.classes["judo"].EnrolledCount = 2

	result, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "student-1", ClassID: "judo"}, staffClaims())
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotNil(t, result.Enrollment)
	assert.Equal(t, models.EnrollmentStatusWaitingList, result.Enrollment.Status)
	assert.Contains(t, result.Message, "waiting list")
	assert.Equal(t, 2, classes.classes["judo"].EnrolledCount)
	assert.Equal(t, 1, classes.classes["judo"].WaitingListCount)

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "New waiting list entry", dispatcher.sent[0].Title)
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	svc, repo, _, _, _, _, _ := newTestEnrollmentService(t)
	repo.enrollments["existing"] = models.Enrollment{
		ID: "existing", StudentID: "student-1", ClassID: "judo",
		Status: models.EnrollmentStatusConfirmed,
	}

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "student-1", ClassID: "judo"}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErrors.FromError(err).Code)
}

func TestEnrollDefersAtActivityLimit(t *testing.T) {
	svc, repo, _, _, requests, _, dispatcher := newTestEnrollmentService(t)
	repo.confirmed["student-1"] = 3

	result, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "student-1", ClassID: "judo"}, staffClaims())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Nil(t, result.Enrollment)
	assert.Contains(t, result.Message, "Limit of 3 activities")

	require.Len(t, requests.created, 1)
	created := requests.created[0]
	assert.Equal(t, models.RequestTypeEnrollmentOverride, created.Type)
	assert.Equal(t, models.RequestStatusPending, created.Status)
	require.NotNil(t, created.StudentID)
	assert.Equal(t, "student-1", *created.StudentID)
	assert.Equal(t, "secretary-1", created.RequesterID)

	// every coordinator is told, nobody else, and the message names the
	// requester, the student and the class
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "coord-1", dispatcher.sent[0].RecipientID)
	assert.Equal(t, "Enrollment approval needed", dispatcher.sent[0].Title)
	assert.Contains(t, dispatcher.sent[0].Message, "Eva Prado")
	assert.Contains(t, dispatcher.sent[0].Message, "Ana Souza")
	assert.Contains(t, dispatcher.sent[0].Message, "Judo Youth")
}

func TestEnrollRejectsUnknownStudent(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestEnrollmentService(t)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "ghost", ClassID: "judo"}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollRejectsNonStudentAndInactive(t *testing.T) {
	svc, _, _, users, _, _, _ := newTestEnrollmentService(t)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "analyst-1", ClassID: "judo"}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	users.users["student-1"].Active = false
	_, err = svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "student-1", ClassID: "judo"}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCancelReleasesSeatAndAdvertisesWaitlistHead(t *testing.T) {
	svc, repo, classes, _, _, audit, _ := newTestEnrollmentService(t)
	classes.classes["judo"].EnrolledCount = 2
	classes.classes["judo"].WaitingListCount = 1
	repo.enrollments["e-confirmed"] = models.Enrollment{
		ID: "e-confirmed", ClassID: "judo", StudentID: "student-1",
		StudentName: "Ana Souza", Status: models.EnrollmentStatusConfirmed,
	}
	repo.enrollments["e-waiting"] = models.Enrollment{
		ID: "e-waiting", ClassID: "judo", StudentID: "student-2",
		StudentName: "Bruno Lima", Status: models.EnrollmentStatusWaitingList,
	}

	result, err := svc.Cancel(context.Background(), "e-confirmed", staffClaims())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Judo Youth", result.ClassTitle)
	require.NotNil(t, result.NextStudent)
	assert.Equal(t, "student-2", result.NextStudent.ID)

	// the waitlist head is advisory: no promotion happened
	assert.Equal(t, models.EnrollmentStatusWaitingList, repo.enrollments["e-waiting"].Status)
	assert.Equal(t, 1, classes.classes["judo"].EnrolledCount)
	assert.Equal(t, 1, classes.classes["judo"].WaitingListCount)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionCancelEnrollment, audit.entries[0].Action)
}

func TestCancelWaitingEntryProducesNoAdvisory(t *testing.T) {
	svc, repo, classes, _, _, _, _ := newTestEnrollmentService(t)
	classes.classes["judo"].WaitingListCount = 1
	repo.enrollments["e-waiting"] = models.Enrollment{
		ID: "e-waiting", ClassID: "judo", StudentID: "student-2",
		StudentName: "Bruno Lima", Status: models.EnrollmentStatusWaitingList,
	}

	result, err := svc.Cancel(context.Background(), "e-waiting", staffClaims())
	require.NoError(t, err)

	assert.Nil(t, result.NextStudent)
	assert.Equal(t, 0, classes.classes["judo"].WaitingListCount)
}

func TestCancelUnknownEnrollmentIsNotFound(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestEnrollmentService(t)

	_, err := svc.Cancel(context.Background(), "missing", staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCancelAllForStudentReleasesEveryCounter(t *testing.T) {
	svc, repo, classes, _, _, audit, _ := newTestEnrollmentService(t)
	classes.classes["swim"] = &models.SportClass{ID: "swim", Title: "Swimming", Capacity: 5, EnrolledCount: 1}
	classes.classes["judo"].EnrolledCount = 1
	classes.classes["judo"].WaitingListCount = 0
	repo.enrollments["e1"] = models.Enrollment{
		ID: "e1", ClassID: "judo", StudentID: "student-1",
		StudentName: "Ana Souza", Status: models.EnrollmentStatusConfirmed,
	}
	repo.enrollments["e2"] = models.Enrollment{
		ID: "e2", ClassID: "swim", StudentID: "student-1",
		StudentName: "Ana Souza", Status: models.EnrollmentStatusConfirmed,
	}

	err := svc.CancelAllForStudent(context.Background(), "student-1", staffClaims())
	require.NoError(t, err)

	assert.Empty(t, repo.enrollments)
	assert.Equal(t, 0, classes.classes["judo"].EnrolledCount)
	assert.Equal(t, 0, classes.classes["swim"].EnrolledCount)
	assert.Len(t, audit.entries, 2)
}

func TestAllocateSeatRespectsCapacity(t *testing.T) {
	svc, _, classes, _, _, _, _ := newTestEnrollmentService(t)
	classes.classes["judo"].EnrolledCount = 2

	enrollment, err := svc.AllocateSeat(context.Background(), "student-1", "Ana Souza", "judo")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWaitingList, enrollment.Status)
	assert.Equal(t, 1, classes.classes["judo"].WaitingListCount)
}
