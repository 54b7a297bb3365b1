package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
)

// BlockRepository handles persistence of enrollment blocks.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository constructs the repository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// Exists reports whether a block exists for the (offering, student) pair.
func (r *BlockRepository) Exists(ctx context.Context, offeringID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM enrollment_blocks WHERE offering_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, offeringID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment block: %w", err)
	}
	return true, nil
}

// ListByOffering returns all blocks for an offering.
func (r *BlockRepository) ListByOffering(ctx context.Context, offeringID string) ([]models.EnrollmentBlock, error) {
	const query = `SELECT id, offering_id, student_id, reason, created_by, created_at
        FROM enrollment_blocks WHERE offering_id = $1 ORDER BY created_at ASC`
	var blocks []models.EnrollmentBlock
	if err := r.db.SelectContext(ctx, &blocks, query, offeringID); err != nil {
		return nil, fmt.Errorf("list enrollment blocks: %w", err)
	}
	return blocks, nil
}

// Create inserts a block. Re-blocking an already blocked pair is a no-op
// thanks to the conflict clause, keeping the operation idempotent.
func (r *BlockRepository) Create(ctx context.Context, block *models.EnrollmentBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollment_blocks (id, offering_id, student_id, reason, created_by, created_at)
        VALUES (:id, :offering_id, :student_id, :reason, :created_by, :created_at)
        ON CONFLICT (offering_id, student_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create enrollment block: %w", err)
	}
	return nil
}

// Delete removes a block for the (offering, student) pair. Returns false
// when no block existed.
func (r *BlockRepository) Delete(ctx context.Context, offeringID, studentID string) (bool, error) {
	const query = `DELETE FROM enrollment_blocks WHERE offering_id = $1 AND student_id = $2`
	res, err := r.db.ExecContext(ctx, query, offeringID, studentID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment block: %w", err)
	}
	return affected > 0, nil
}
