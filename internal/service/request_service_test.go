package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viva-esporte/arena-api/internal/dto"
	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type mockRequestRepo struct {
	requests map[string]*models.ChangeRequest
	resolved map[string]models.RequestStatus
}

func (m *mockRequestRepo) Create(ctx context.Context, request *models.ChangeRequest) error {
	if m.requests == nil {
		m.requests = make(map[string]*models.ChangeRequest)
	}
	if request.ID == "" {
		request.ID = "request-1"
	}
	m.requests[request.ID] = request
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	if r, ok := m.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) List(ctx context.Context, filter models.RequestFilter) ([]models.ChangeRequest, error) {
	var list []models.ChangeRequest
	for _, r := range m.requests {
		list = append(list, *r)
	}
	return list, nil
}

func (m *mockRequestRepo) Resolve(ctx context.Context, id string, status models.RequestStatus, resolvedBy string, resolvedAt time.Time) error {
	r, ok := m.requests[id]
	if !ok || r.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	r.Status = status
	r.ResolvedBy = &resolvedBy
	r.ResolvedAt = &resolvedAt
	if m.resolved == nil {
		m.resolved = make(map[string]models.RequestStatus)
	}
	m.resolved[id] = status
	return nil
}

type mockClassWriter struct {
	classes map[string]*models.SportClass
	created []models.SportClass
	updated []models.SportClass
}

func (m *mockClassWriter) FindByID(ctx context.Context, id string) (*models.SportClass, error) {
	if c, ok := m.classes[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassWriter) Create(ctx context.Context, class *models.SportClass) error {
	if m.classes == nil {
		m.classes = make(map[string]*models.SportClass)
	}
	m.classes[class.ID] = class
	m.created = append(m.created, *class)
	return nil
}

func (m *mockClassWriter) Update(ctx context.Context, class *models.SportClass) error {
	m.classes[class.ID] = class
	m.updated = append(m.updated, *class)
	return nil
}

type mockAllocator struct {
	calls []string
}

func (m *mockAllocator) AllocateSeat(ctx context.Context, studentID, studentName, classID string) (*models.Enrollment, error) {
	m.calls = append(m.calls, studentID+"/"+classID)
	return &models.Enrollment{ID: "e-override", StudentID: studentID, ClassID: classID, Status: models.EnrollmentStatusConfirmed}, nil
}

type mockCache struct {
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) {
	m.deleted = append(m.deleted, keys...)
}

func newTestRequestService(t *testing.T) (*RequestService, *mockRequestRepo, *mockClassWriter, *mockAllocator, *mockAuditSink, *mockDispatcher, *mockCache) {
	t.Helper()
	repo := &mockRequestRepo{requests: map[string]*models.ChangeRequest{}}
	classes := &mockClassWriter{classes: map[string]*models.SportClass{
		"judo": {ID: "judo", Title: "Judo Youth", AnalystID: "analyst-1", Capacity: 2, Status: models.ClassStatusActive},
	}}
	users := &mockUserStore{users: map[string]*models.User{
		"analyst-1": {ID: "analyst-1", FullName: "Carla Dias", Role: models.RoleAnalyst, Active: true},
		"analyst-2": {ID: "analyst-2", FullName: "Fabio Melo", Role: models.RoleAnalyst, Active: true},
		"coord-1":   {ID: "coord-1", FullName: "Dora Reis", Role: models.RoleCoordinator, Active: true},
	}}
	allocator := &mockAllocator{}
	audit := &mockAuditSink{}
	dispatcher := &mockDispatcher{}
	cache := &mockCache{}
	svc := NewRequestService(repo, classes, users, allocator, audit, dispatcher, cache, nil, nil)
	return svc, repo, classes, allocator, audit, dispatcher, cache
}

func coordinatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "coord-1", FullName: "Dora Reis", Role: models.RoleCoordinator}
}

func validClassPayload() dto.ClassPayload {
	return dto.ClassPayload{
		Title:     "Swimming Kids",
		Modality:  "swimming",
		AnalystID: "analyst-1",
		Days:      []string{"monday", "wednesday"},
		TimeRange: "14:00-15:00",
		Location:  "Pool A",
		Capacity:  10,
		MinAge:    6,
		MaxAge:    10,
	}
}

func TestSubmitCreateAssignsStableClassID(t *testing.T) {
	svc, repo, _, _, audit, dispatcher, _ := newTestRequestService(t)

	request, err := svc.SubmitCreate(context.Background(), validClassPayload(), staffClaims())
	require.NoError(t, err)

	assert.Equal(t, models.RequestTypeCreate, request.Type)
	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.NotEmpty(t, request.ClassID)
	assert.Equal(t, "Swimming Kids", request.ClassTitle)
	assert.NotEmpty(t, request.RequestedChanges)
	assert.Contains(t, repo.requests, request.ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionRequestCreate, audit.entries[0].Action)

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "coord-1", dispatcher.sent[0].RecipientID)
}

func TestSubmitCreateRejectsNonAnalystAssignee(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestRequestService(t)

	payload := validClassPayload()
	payload.AnalystID = "coord-1"
	_, err := svc.SubmitCreate(context.Background(), payload, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitUpdateRejectsEmptyPatch(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestRequestService(t)

	_, err := svc.SubmitUpdate(context.Background(), "judo", dto.ClassPatch{}, staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveApprovedCreateMaterializesClass(t *testing.T) {
	svc, _, classes, _, audit, dispatcher, cache := newTestRequestService(t)

	request, err := svc.SubmitCreate(context.Background(), validClassPayload(), staffClaims())
	require.NoError(t, err)
	audit.entries = nil
	dispatcher.sent = nil

	resolved, err := svc.Resolve(context.Background(), request.ID, dto.ResolveRequest{Approved: true}, coordinatorClaims())
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "coord-1", *resolved.ResolvedBy)

	require.Len(t, classes.created, 1)
	created := classes.created[0]
	assert.Equal(t, request.ClassID, created.ID)
	assert.Equal(t, "Swimming Kids", created.Title)
	assert.Equal(t, "Carla Dias", created.AnalystName)
	assert.Equal(t, models.ClassStatusActive, created.Status)
	assert.Zero(t, created.EnrolledCount)
	assert.Zero(t, created.WaitingListCount)

	assert.Contains(t, cache.deleted, classListCacheKey)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionResolveRequest, audit.entries[0].Action)
	assert.Contains(t, audit.entries[0].Details, "Approved")

	// requester gets the verdict
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "secretary-1", dispatcher.sent[0].RecipientID)
}

func TestResolveApprovedUpdateMergesPatch(t *testing.T) {
	svc, _, classes, _, _, _, _ := newTestRequestService(t)

	newCapacity := 30
	newAnalyst := "analyst-2"
	request, err := svc.SubmitUpdate(context.Background(), "judo", dto.ClassPatch{
		Capacity:  &newCapacity,
		AnalystID: &newAnalyst,
	}, staffClaims())
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), request.ID, dto.ResolveRequest{Approved: true}, coordinatorClaims())
	require.NoError(t, err)

	require.Len(t, classes.updated, 1)
	updated := classes.updated[0]
	assert.Equal(t, 30, updated.Capacity)
	assert.Equal(t, "analyst-2", updated.AnalystID)
	assert.Equal(t, "Fabio Melo", updated.AnalystName)
	// untouched fields survive the merge
	assert.Equal(t, "Judo Youth", updated.Title)
}

func TestResolveApprovedOverrideAllocatesSeat(t *testing.T) {
	svc, repo, _, allocator, audit, _, _ := newTestRequestService(t)

	studentID := "student-1"
	studentName := "Ana Souza"
	repo.requests["override-1"] = &models.ChangeRequest{
		ID: "override-1", Type: models.RequestTypeEnrollmentOverride,
		ClassID: "judo", ClassTitle: "Judo Youth",
		RequesterID: "secretary-1", RequesterName: "Eva Prado",
		StudentID: &studentID, StudentName: &studentName,
		Status: models.RequestStatusPending,
	}

	_, err := svc.Resolve(context.Background(), "override-1", dto.ResolveRequest{Approved: true}, coordinatorClaims())
	require.NoError(t, err)

	require.Len(t, allocator.calls, 1)
	assert.Equal(t, "student-1/judo", allocator.calls[0])
	require.Len(t, audit.entries, 1)
}

func TestResolveRejectedOverrideIsNotAudited(t *testing.T) {
	svc, repo, _, allocator, audit, dispatcher, _ := newTestRequestService(t)

	studentID := "student-1"
	repo.requests["override-1"] = &models.ChangeRequest{
		ID: "override-1", Type: models.RequestTypeEnrollmentOverride,
		ClassID: "judo", ClassTitle: "Judo Youth",
		RequesterID: "secretary-1",
		StudentID:   &studentID,
		Status:      models.RequestStatusPending,
	}

	resolved, err := svc.Resolve(context.Background(), "override-1", dto.ResolveRequest{Approved: false}, coordinatorClaims())
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusRejected, resolved.Status)
	assert.Empty(t, allocator.calls)
	assert.Empty(t, audit.entries)

	// the requester still hears about the rejection
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "Request rejected", dispatcher.sent[0].Title)
}

func TestResolveTwiceIsConflict(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestRequestService(t)

	request, err := svc.SubmitCreate(context.Background(), validClassPayload(), staffClaims())
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), request.ID, dto.ResolveRequest{Approved: true}, coordinatorClaims())
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), request.ID, dto.ResolveRequest{Approved: false}, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)
}

func TestResolveUnknownRequestIsNotFound(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestRequestService(t)

	_, err := svc.Resolve(context.Background(), "missing", dto.ResolveRequest{Approved: true}, coordinatorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStoredCreatePayloadRoundTrips(t *testing.T) {
	svc, repo, _, _, _, _, _ := newTestRequestService(t)

	payload := validClassPayload()
	request, err := svc.SubmitCreate(context.Background(), payload, staffClaims())
	require.NoError(t, err)

	var decoded dto.ClassPayload
	require.NoError(t, json.Unmarshal(repo.requests[request.ID].RequestedChanges, &decoded))
	assert.Equal(t, payload.Title, decoded.Title)
	assert.Equal(t, payload.Days, decoded.Days)
	assert.Equal(t, payload.Capacity, decoded.Capacity)
}
