package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
//
// The underlying store guarantees atomicity per statement only, so every
// capacity-sensitive write here is a single conditional statement: the seat
// count (or waitlist position) is derived inside the same INSERT/UPDATE that
// consumes it. Callers inspect the affected-row count to learn whether the
// condition held.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN class_offerings o ON o.id = e.offering_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("e.offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":        "e.created_at",
		"student_name":      "s.full_name",
		"offering_name":     "o.name",
		"waitlist_position": "e.waitlist_position",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
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

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.offering_id, e.status, e.waitlist_position, e.force_enrolled, e.created_at, e.updated_at,
        s.full_name AS student_name, o.name AS offering_name, o.teacher_id AS teacher_id
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, offering_id, status, waitlist_position, force_enrolled, created_at, updated_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and offering context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.offering_id, e.status, e.waitlist_position, e.force_enrolled, e.created_at, e.updated_at,
        s.full_name AS student_name, o.name AS offering_name, o.teacher_id AS teacher_id
        FROM enrollments e
        LEFT JOIN students s ON s.id = e.student_id
        LEFT JOIN class_offerings o ON o.id = e.offering_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive checks whether a non-cancelled enrollment exists for the
// (student, offering) pair. This is the idempotency gate for duplicates.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, offeringID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND offering_id = $2 AND status <> $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, offeringID, models.EnrollmentStatusCancelled); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// SeatUsage returns confirmed, pending and waitlisted counts for an offering.
func (r *EnrollmentRepository) SeatUsage(ctx context.Context, offeringID string) (models.SeatUsage, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE status = $2) AS confirmed,
        COUNT(*) FILTER (WHERE status = $3) AS pending,
        COUNT(*) FILTER (WHERE status = $4) AS waitlisted,
        COUNT(*) FILTER (WHERE status = $2 AND force_enrolled) AS forced
        FROM enrollments WHERE offering_id = $1`
	var usage models.SeatUsage
	if err := r.db.GetContext(ctx, &usage, query, offeringID,
		models.EnrollmentStatusConfirmed, models.EnrollmentStatusPending, models.EnrollmentStatusWaitlisted); err != nil {
		return models.SeatUsage{}, fmt.Errorf("count seat usage: %w", err)
	}
	return usage, nil
}

// InsertSeated inserts the enrollment only if the offering still has a free
// seat, re-deriving the occupied count inside the statement. Returns false
// when the class was full and nothing was written.
func (r *EnrollmentRepository) InsertSeated(ctx context.Context, enrollment *models.Enrollment, capacity int) (bool, error) {
	prepare(enrollment)
	const query = `INSERT INTO enrollments (id, student_id, offering_id, status, waitlist_position, force_enrolled, created_at, updated_at)
        SELECT $1, $2, $3, $4, NULL, FALSE, $5, $5
        WHERE (SELECT COUNT(*) FROM enrollments WHERE offering_id = $3 AND status IN ($6, $7)) < $8`
	res, err := r.db.ExecContext(ctx, query,
		enrollment.ID, enrollment.StudentID, enrollment.OfferingID, enrollment.Status, enrollment.CreatedAt,
		models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed, capacity)
	if err != nil {
		return false, fmt.Errorf("insert seated enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert seated enrollment: %w", err)
	}
	return affected > 0, nil
}

// InsertWaitlisted appends the enrollment to the offering's waitlist,
// assigning max(position)+1 within the same statement.
func (r *EnrollmentRepository) InsertWaitlisted(ctx context.Context, enrollment *models.Enrollment) error {
	prepare(enrollment)
	enrollment.Status = models.EnrollmentStatusWaitlisted
	const query = `INSERT INTO enrollments (id, student_id, offering_id, status, waitlist_position, force_enrolled, created_at, updated_at)
        VALUES ($1, $2, $3, $4,
            (SELECT COALESCE(MAX(waitlist_position), 0) + 1 FROM enrollments WHERE offering_id = $3 AND status = $4),
            FALSE, $5, $5)
        RETURNING waitlist_position`
	var position int
	if err := r.db.GetContext(ctx, &position, query,
		enrollment.ID, enrollment.StudentID, enrollment.OfferingID, models.EnrollmentStatusWaitlisted, enrollment.CreatedAt); err != nil {
		return fmt.Errorf("insert waitlisted enrollment: %w", err)
	}
	enrollment.WaitlistPosition = &position
	return nil
}

// InsertForced writes a confirmed enrollment unconditionally, bypassing the
// capacity condition. Rows written this way are tagged for audit.
func (r *EnrollmentRepository) InsertForced(ctx context.Context, enrollment *models.Enrollment) error {
	prepare(enrollment)
	enrollment.Status = models.EnrollmentStatusConfirmed
	enrollment.ForceEnrolled = true
	const query = `INSERT INTO enrollments (id, student_id, offering_id, status, waitlist_position, force_enrolled, created_at, updated_at)
        VALUES (:id, :student_id, :offering_id, :status, NULL, :force_enrolled, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("insert forced enrollment: %w", err)
	}
	return nil
}

// WaitlistHead returns the waitlisted enrollment with the lowest position for
// the offering, or sql.ErrNoRows when the queue is empty.
func (r *EnrollmentRepository) WaitlistHead(ctx context.Context, offeringID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, offering_id, status, waitlist_position, force_enrolled, created_at, updated_at
        FROM enrollments WHERE offering_id = $1 AND status = $2
        ORDER BY waitlist_position ASC LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, offeringID, models.EnrollmentStatusWaitlisted); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListWaitlist returns the offering's waitlist ordered by position ascending.
func (r *EnrollmentRepository) ListWaitlist(ctx context.Context, offeringID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, offering_id, status, waitlist_position, force_enrolled, created_at, updated_at
        FROM enrollments WHERE offering_id = $1 AND status = $2
        ORDER BY waitlist_position ASC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, offeringID, models.EnrollmentStatusWaitlisted); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return enrollments, nil
}

// Promote transitions a waitlisted enrollment to PENDING and clears its
// position. Guarded on the current status so a promotion cannot be applied
// twice; returns false when the row was no longer waitlisted.
func (r *EnrollmentRepository) Promote(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `UPDATE enrollments SET status = $2, waitlist_position = NULL, updated_at = $3
        WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusPending, now, models.EnrollmentStatusWaitlisted)
	if err != nil {
		return false, fmt.Errorf("promote enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("promote enrollment: %w", err)
	}
	return affected > 0, nil
}

// Cancel marks an enrollment CANCELLED if its current status is one of the
// allowed source statuses. Cancellation is terminal.
func (r *EnrollmentRepository) Cancel(ctx context.Context, id string, from []models.EnrollmentStatus, now time.Time) (bool, error) {
	placeholders := make([]string, len(from))
	args := []interface{}{id, models.EnrollmentStatusCancelled, now}
	for i, status := range from {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, status)
	}
	query := fmt.Sprintf(`UPDATE enrollments SET status = $2, waitlist_position = NULL, updated_at = $3
        WHERE id = $1 AND status IN (%s)`, strings.Join(placeholders, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("cancel enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel enrollment: %w", err)
	}
	return affected > 0, nil
}

// CancelAllActive cancels every non-cancelled enrollment of an offering.
// Used when the offering itself is cancelled; nobody gets promoted into a
// class that no longer runs.
func (r *EnrollmentRepository) CancelAllActive(ctx context.Context, offeringID string, now time.Time) (int64, error) {
	const query = `UPDATE enrollments SET status = $2, waitlist_position = NULL, updated_at = $3
        WHERE offering_id = $1 AND status <> $2`
	res, err := r.db.ExecContext(ctx, query, offeringID, models.EnrollmentStatusCancelled, now)
	if err != nil {
		return 0, fmt.Errorf("cancel offering enrollments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel offering enrollments: %w", err)
	}
	return affected, nil
}

// ListPendingNewestFirst returns non-forced pending enrollments for an
// offering ordered by creation time descending. Used by reconciliation to
// pick demotion candidates in reverse join order.
func (r *EnrollmentRepository) ListPendingNewestFirst(ctx context.Context, offeringID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, offering_id, status, waitlist_position, force_enrolled, created_at, updated_at
        FROM enrollments WHERE offering_id = $1 AND status = $2 AND force_enrolled = FALSE
        ORDER BY created_at DESC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, offeringID, models.EnrollmentStatusPending); err != nil {
		return nil, fmt.Errorf("list pending enrollments: %w", err)
	}
	return enrollments, nil
}

// Demote moves a pending enrollment back to the waitlist tail, assigning a
// fresh max+1 position in the same statement. Returns the new position, or
// false when the row was no longer pending.
func (r *EnrollmentRepository) Demote(ctx context.Context, id string, now time.Time) (int, bool, error) {
	const query = `UPDATE enrollments SET status = $2,
        waitlist_position = (SELECT COALESCE(MAX(waitlist_position), 0) + 1 FROM enrollments WHERE offering_id = (SELECT offering_id FROM enrollments WHERE id = $1) AND status = $2),
        updated_at = $3
        WHERE id = $1 AND status = $4 AND force_enrolled = FALSE
        RETURNING waitlist_position`
	var position int
	if err := r.db.GetContext(ctx, &position, query, id, models.EnrollmentStatusWaitlisted, now, models.EnrollmentStatusPending); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("demote enrollment: %w", err)
	}
	return position, true, nil
}

// Confirm flips a pending enrollment to CONFIRMED once payment completes.
func (r *EnrollmentRepository) Confirm(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusConfirmed, now, models.EnrollmentStatusPending)
	if err != nil {
		return false, fmt.Errorf("confirm enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("confirm enrollment: %w", err)
	}
	return affected > 0, nil
}

func prepare(enrollment *models.Enrollment) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	enrollment.UpdatedAt = enrollment.CreatedAt
}
