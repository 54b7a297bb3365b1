package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
)

// PaymentRepository reads and transitions payment records owned by the
// external processor integration.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByEnrollment returns the payment linked to an enrollment.
func (r *PaymentRepository) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Payment, error) {
	const query = `SELECT id, enrollment_id, amount_cents, status, created_at, updated_at
        FROM payments WHERE enrollment_id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, enrollmentID); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create records a pending payment for an enrollment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = payment.CreatedAt
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	const query = `INSERT INTO payments (id, enrollment_id, amount_cents, status, created_at, updated_at)
        VALUES (:id, :enrollment_id, :amount_cents, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Transition updates the payment status guarded on its current value, so a
// replayed processor callback cannot apply the same transition twice.
func (r *PaymentRepository) Transition(ctx context.Context, id string, from, to models.PaymentStatus) (bool, error) {
	const query = `UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, to, time.Now().UTC(), from)
	if err != nil {
		return false, fmt.Errorf("transition payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition payment: %w", err)
	}
	return affected > 0, nil
}
