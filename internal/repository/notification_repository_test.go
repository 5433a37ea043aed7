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

func TestNotificationRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{
		RecipientID: "analyst-1",
		Title:       "New enrollment",
		Message:     "Ana Souza enrolled in Judo Youth",
		Details:     &models.NotificationDetails{RegistrarName: "Eva Prado", StudentName: "Ana Souza"},
	}
	require.NoError(t, repo.Create(context.Background(), notification))
	require.NotEmpty(t, notification.ID)
	require.False(t, notification.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadScopedToRecipient(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2")).
		WithArgs("notif-1", "analyst-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRead(context.Background(), "notif-1", "analyst-1"))

	// Same notification, different recipient: the WHERE clause matches
	// nothing and the repository reports a missing row.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2")).
		WithArgs("notif-1", "student-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkRead(context.Background(), "notif-1", "student-1")
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListNewestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "recipient_id", "title", "message", "details", "read", "created_at"}).
		AddRow("notif-2", "analyst-1", "New enrollment", "Bia Lima enrolled", nil, false, now).
		AddRow("notif-1", "analyst-1", "New enrollment", "Ana Souza enrolled", []byte(`{"registrar_name":"Eva Prado"}`), true, now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM notifications WHERE recipient_id = \$1 ORDER BY created_at DESC`).
		WithArgs("analyst-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByRecipient(context.Background(), "analyst-1")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.Equal(t, "notif-2", notifications[0].ID)
	require.Nil(t, notifications[0].Details)
	require.NotNil(t, notifications[1].Details)
	require.Equal(t, "Eva Prado", notifications[1].Details.RegistrarName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryUnreadCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE")).
		WithArgs("analyst-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.UnreadCount(context.Background(), "analyst-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
