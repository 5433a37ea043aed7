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

func TestEnrollmentRepositoryFirstWaitingOrdersByCreation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "class_id", "student_id", "student_name", "status", "expires_at", "created_at"}).
		AddRow("enr-1", "class-1", "student-3", "Caio Dias", models.EnrollmentStatusWaitingList, nil, created)

	mock.ExpectQuery(`SELECT .+ FROM enrollments WHERE class_id = \$1 AND status = \$2\s+ORDER BY created_at ASC, id ASC LIMIT 1`).
		WithArgs("class-1", models.EnrollmentStatusWaitingList).
		WillReturnRows(rows)

	enrollment, err := repo.FirstWaiting(context.Background(), "class-1")
	require.NoError(t, err)
	require.Equal(t, "enr-1", enrollment.ID)
	require.Equal(t, models.EnrollmentStatusWaitingList, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFirstWaitingEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(`SELECT .+ FROM enrollments WHERE class_id = \$1 AND status = \$2`).
		WithArgs("class-1", models.EnrollmentStatusWaitingList).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FirstWaiting(context.Background(), "class-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteReportsMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "enr-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "enr-1"), sql.ErrNoRows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListFiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "class_id", "student_id", "student_name", "status", "expires_at", "created_at"}).
		AddRow("enr-1", "class-1", "student-1", "Ana Souza", models.EnrollmentStatusConfirmed, nil, created)

	mock.ExpectQuery(`SELECT .+ FROM enrollments WHERE class_id = \$1 AND status = \$2 ORDER BY created_at ASC, id ASC`).
		WithArgs("class-1", models.EnrollmentStatusConfirmed).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM enrollments WHERE class_id = \$1 AND status = \$2`).
		WithArgs("class-1", models.EnrollmentStatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	enrollments, total, err := repo.List(context.Background(), models.EnrollmentFilter{
		ClassID: "class-1",
		Status:  models.EnrollmentStatusConfirmed,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, enrollments, 1)
	require.Equal(t, "Ana Souza", enrollments[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}
