package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records map[string]models.AttendanceRecord
}

func (m *mockAttendanceRepo) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.AttendanceRecord)
	}
	for _, r := range records {
		key := r.ClassID + "/" + r.Date.Format("2006-01-02") + "/" + r.StudentID
		m.records[key] = r
	}
	return nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	var list []models.AttendanceRecord
	for _, r := range m.records {
		list = append(list, r)
	}
	return list, nil
}

func newTestAttendanceService(t *testing.T) (*AttendanceService, *mockAttendanceRepo, *mockAuditSink) {
	t.Helper()
	repo := &mockAttendanceRepo{records: map[string]models.AttendanceRecord{}}
	classes := &mockClassStore{classes: map[string]*models.SportClass{
		"judo": {ID: "judo", Title: "Judo Youth", AnalystID: "analyst-1", Capacity: 10},
	}}
	audit := &mockAuditSink{}
	svc := NewAttendanceService(repo, classes, audit, nil, nil)
	return svc, repo, audit
}

func analystClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, FullName: "Carla Dias", Role: models.RoleAnalyst}
}

func TestSubmitRecordsRollCall(t *testing.T) {
	svc, repo, audit := newTestAttendanceService(t)

	absence := "doctor appointment"
	err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ClassID: "judo",
		Date:    "2026-08-03",
		Entries: []AttendanceEntry{
			{StudentID: "student-1", Present: true},
			{StudentID: "student-2", Present: false, Justification: &absence},
		},
	}, analystClaims("analyst-1"))
	require.NoError(t, err)

	require.Len(t, repo.records, 2)
	absent := repo.records["judo/2026-08-03/student-2"]
	assert.False(t, absent.Present)
	require.NotNil(t, absent.Justification)
	assert.Equal(t, "doctor appointment", *absent.Justification)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionSubmitAttendance, audit.entries[0].Action)
	assert.Contains(t, audit.entries[0].Details, "2 students")
}

func TestResubmitOverwritesSameSession(t *testing.T) {
	svc, repo, _ := newTestAttendanceService(t)

	submit := func(present bool) error {
		return svc.Submit(context.Background(), SubmitAttendanceRequest{
			ClassID: "judo",
			Date:    "2026-08-03",
			Entries: []AttendanceEntry{{StudentID: "student-1", Present: present}},
		}, analystClaims("analyst-1"))
	}
	require.NoError(t, submit(false))
	require.NoError(t, submit(true))

	require.Len(t, repo.records, 1)
	assert.True(t, repo.records["judo/2026-08-03/student-1"].Present)
}

func TestSubmitForbiddenForOtherAnalyst(t *testing.T) {
	svc, _, _ := newTestAttendanceService(t)

	err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ClassID: "judo",
		Date:    "2026-08-03",
		Entries: []AttendanceEntry{{StudentID: "student-1", Present: true}},
	}, analystClaims("analyst-2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitAllowsCoordinatorOnAnyClass(t *testing.T) {
	svc, repo, _ := newTestAttendanceService(t)

	err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ClassID: "judo",
		Date:    "2026-08-03",
		Entries: []AttendanceEntry{{StudentID: "student-1", Present: true}},
	}, coordinatorClaims())
	require.NoError(t, err)
	assert.Len(t, repo.records, 1)
}

func TestSubmitRejectsBadPayload(t *testing.T) {
	svc, _, _ := newTestAttendanceService(t)

	cases := []SubmitAttendanceRequest{
		{ClassID: "judo", Date: "03/08/2026", Entries: []AttendanceEntry{{StudentID: "s"}}},
		{ClassID: "judo", Date: "2026-08-03"},
		{Date: "2026-08-03", Entries: []AttendanceEntry{{StudentID: "s"}}},
	}
	for _, req := range cases {
		err := svc.Submit(context.Background(), req, analystClaims("analyst-1"))
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestSubmitUnknownClass(t *testing.T) {
	svc, _, _ := newTestAttendanceService(t)

	err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ClassID: "missing",
		Date:    "2026-08-03",
		Entries: []AttendanceEntry{{StudentID: "student-1", Present: true}},
	}, analystClaims("analyst-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
