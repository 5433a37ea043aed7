package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/viva-esporte/arena-api/internal/models"
)

const requestColumns = `id, type, class_id, class_title, requester_id, requester_name,
        student_id, student_name, requested_changes, status, resolved_by, resolved_at, created_at`

// RequestRepository handles persistence of change requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create persists a new pending request.
func (r *RequestRepository) Create(ctx context.Context, request *models.ChangeRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	const query = `INSERT INTO change_requests (id, type, class_id, class_title, requester_id, requester_name,
        student_id, student_name, requested_changes, status, resolved_by, resolved_at, created_at)
        VALUES (:id, :type, :class_id, :class_title, :requester_id, :requester_name,
        :student_id, :student_name, :requested_changes, :status, :resolved_by, :resolved_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

// GetByID returns a request by its ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM change_requests WHERE id = $1", requestColumns)
	var request models.ChangeRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests constrained by the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.ChangeRequest, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)+1))
		args = append(args, filter.RequesterID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM change_requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		requestColumns, clause, limit, offset)

	var requests []models.ChangeRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	return requests, nil
}

// Resolve transitions a pending request to its terminal status. The WHERE
// clause pins the current status to PENDING so a concurrent or repeated
// resolution reports sql.ErrNoRows instead of flipping the row twice.
func (r *RequestRepository) Resolve(ctx context.Context, id string, status models.RequestStatus, resolvedBy string, resolvedAt time.Time) error {
	const query = `UPDATE change_requests SET status = $2, resolved_by = $3, resolved_at = $4
        WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, status, resolvedBy, resolvedAt, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("resolve change request: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
