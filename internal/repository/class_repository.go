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

const classColumns = `id, title, description, modality, analyst_id, analyst_name, days, time_range,
        location, capacity, min_age, max_age, status, enrolled_count, waiting_list_count, created_at, updated_at`

// ClassRepository handles persistence of sport classes, including the
// cached capacity counters mutated by the capacity ledger.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.SportClass, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Modality != "" {
		conditions = append(conditions, fmt.Sprintf("modality = $%d", len(args)+1))
		args = append(args, filter.Modality)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.AnalystID != "" {
		conditions = append(conditions, fmt.Sprintf("analyst_id = $%d", len(args)+1))
		args = append(args, filter.AnalystID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR modality ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"title":      "title",
		"modality":   "modality",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM sport_classes%s ORDER BY %s %s LIMIT %d OFFSET %d",
		classColumns, clause, orderBy, order, size, offset)

	var classes []models.SportClass
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM sport_classes" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.SportClass, error) {
	query := fmt.Sprintf("SELECT %s FROM sport_classes WHERE id = $1", classColumns)
	var class models.SportClass
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create persists a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.SportClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	if class.Status == "" {
		class.Status = models.ClassStatusActive
	}
	const query = `INSERT INTO sport_classes (id, title, description, modality, analyst_id, analyst_name, days,
        time_range, location, capacity, min_age, max_age, status, enrolled_count, waiting_list_count, created_at, updated_at)
        VALUES (:id, :title, :description, :modality, :analyst_id, :analyst_name, :days,
        :time_range, :location, :capacity, :min_age, :max_age, :status, :enrolled_count, :waiting_list_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update persists the full class row. Counters are excluded: they belong
// to the capacity ledger and only move through AdjustCounters/Recount.
func (r *ClassRepository) Update(ctx context.Context, class *models.SportClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sport_classes SET title = :title, description = :description, modality = :modality,
        analyst_id = :analyst_id, analyst_name = :analyst_name, days = :days, time_range = :time_range,
        location = :location, capacity = :capacity, min_age = :min_age, max_age = :max_age,
        status = :status, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a class. Enrollment and attendance rows cascade via FK.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sport_classes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Counters returns the capacity ledger view of a class.
func (r *ClassRepository) Counters(ctx context.Context, id string) (*models.ClassCounters, error) {
	const query = `SELECT capacity, enrolled_count, waiting_list_count FROM sport_classes WHERE id = $1`
	var counters models.ClassCounters
	if err := r.db.GetContext(ctx, &counters, query, id); err != nil {
		return nil, err
	}
	return &counters, nil
}

// AdjustCounters applies deltas to the cached counters, clamping both at
// zero so a double-decrement can never drive them negative.
func (r *ClassRepository) AdjustCounters(ctx context.Context, id string, confirmedDelta, waitingDelta int) error {
	const query = `UPDATE sport_classes
        SET enrolled_count = GREATEST(0, enrolled_count + $2),
            waiting_list_count = GREATEST(0, waiting_list_count + $3),
            updated_at = NOW()
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, confirmedDelta, waitingDelta)
	if err != nil {
		return fmt.Errorf("adjust class counters: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecountFromEnrollments rebuilds both counters from the enrollment rows.
// Reserved enrollments hold seats and count toward the confirmed counter.
func (r *ClassRepository) RecountFromEnrollments(ctx context.Context, id string) error {
	const query = `UPDATE sport_classes c SET
        enrolled_count = (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id AND e.status IN ($2, $3)),
        waiting_list_count = (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id AND e.status = $4),
        updated_at = NOW()
        WHERE c.id = $1`
	result, err := r.db.ExecContext(ctx, query, id,
		models.EnrollmentStatusConfirmed, models.EnrollmentStatusReserved, models.EnrollmentStatusWaitingList)
	if err != nil {
		return fmt.Errorf("recount class counters: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
