package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
)

// OfferingRepository handles persistence of class offerings.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

const offeringColumns = `id, name, teacher_id, room, day, block, capacity, price_cents, status, created_at, updated_at`

// List returns offerings filtered by the provided criteria.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error) {
	base := `FROM class_offerings`
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.Block != "" {
		conditions = append(conditions, fmt.Sprintf("block = $%d", len(args)+1))
		args = append(args, filter.Block)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"day":        "day",
		"created_at": "created_at",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d",
		offeringColumns, base+clause, orderBy, order, size, offset)

	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offerings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}
	return offerings, total, nil
}

// FindByID returns an offering by its ID.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM class_offerings WHERE id = $1", offeringColumns)
	var offering models.Offering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// ListActive returns offerings that still occupy their slot, i.e. everything
// except cancelled and completed ones. Conflict checks run against this set.
func (r *OfferingRepository) ListActive(ctx context.Context) ([]models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM class_offerings WHERE status NOT IN ($1, $2)", offeringColumns)
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, models.OfferingStatusCancelled, models.OfferingStatusCompleted); err != nil {
		return nil, fmt.Errorf("list active offerings: %w", err)
	}
	return offerings, nil
}

// ListActiveBySlot returns non-terminal offerings occupying the given slot.
func (r *OfferingRepository) ListActiveBySlot(ctx context.Context, day models.ClassDay, block models.ClassBlock) ([]models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM class_offerings WHERE day = $1 AND block = $2 AND status NOT IN ($3, $4)", offeringColumns)
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, day, block, models.OfferingStatusCancelled, models.OfferingStatusCompleted); err != nil {
		return nil, fmt.Errorf("list offerings by slot: %w", err)
	}
	return offerings, nil
}

// Create persists a new offering record.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.Offering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = offering.CreatedAt
	if offering.Status == "" {
		offering.Status = models.OfferingStatusDraft
	}
	const query = `INSERT INTO class_offerings (id, name, teacher_id, room, day, block, capacity, price_cents, status, created_at, updated_at)
        VALUES (:id, :name, :teacher_id, :room, :day, :block, :capacity, :price_cents, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an offering.
func (r *OfferingRepository) Update(ctx context.Context, offering *models.Offering) error {
	offering.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_offerings SET name = :name, teacher_id = :teacher_id, room = :room,
        day = :day, block = :block, capacity = :capacity, price_cents = :price_cents, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	return nil
}

// UpdateStatus transitions the offering lifecycle.
func (r *OfferingRepository) UpdateStatus(ctx context.Context, id string, status models.OfferingStatus) error {
	const query = `UPDATE class_offerings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update offering status: %w", err)
	}
	return nil
}

// Delete removes an offering. Only draft offerings may be physically
// deleted; published ones are soft-cancelled instead. Returns false when the
// row was not draft (or did not exist).
func (r *OfferingRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM class_offerings WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, models.OfferingStatusDraft)
	if err != nil {
		return false, fmt.Errorf("delete offering: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete offering: %w", err)
	}
	return affected > 0, nil
}
