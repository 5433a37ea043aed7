package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/viva-esporte/arena-api/internal/models"
)

func TestRequestRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO change_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.ChangeRequest{
		Type:          models.RequestTypeCreate,
		ClassID:       "class-1",
		ClassTitle:    "Judo Youth",
		RequesterID:   "secretary-1",
		RequesterName: "Eva Prado",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RequestStatusPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryResolveGuardsOnPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	resolvedAt := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $5")).
		WithArgs("req-1", models.RequestStatusApproved, "coord-1", resolvedAt, models.RequestStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Resolve(context.Background(), "req-1", models.RequestStatusApproved, "coord-1", resolvedAt))

	// second resolution matches no pending row
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $5")).
		WithArgs("req-1", models.RequestStatusRejected, "coord-1", resolvedAt, models.RequestStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Resolve(context.Background(), "req-1", models.RequestStatusRejected, "coord-1", resolvedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListFiltersByStatuses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	rows := sqlmock.NewRows([]string{"id", "type", "class_id", "class_title", "requester_id", "requester_name",
		"student_id", "student_name", "requested_changes", "status", "resolved_by", "resolved_at", "created_at"}).
		AddRow("req-1", "CREATE", "class-1", "Judo Youth", "secretary-1", "Eva Prado",
			nil, nil, []byte(`{"title":"Judo Youth"}`), "PENDING", nil, nil, time.Now())

	mock.ExpectQuery("SELECT id, type, .+ FROM change_requests WHERE status IN \\(\\$1,\\$2\\)").
		WithArgs(models.RequestStatusPending, models.RequestStatusApproved).
		WillReturnRows(rows)

	requests, err := repo.List(context.Background(), models.RequestFilter{
		Status: []models.RequestStatus{models.RequestStatusPending, models.RequestStatusApproved},
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, models.RequestTypeCreate, requests[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}
