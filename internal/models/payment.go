package models

import "time"

// PaymentStatus represents the lifecycle of a payment as reported by the
// external processor.
type PaymentStatus string

// Possible payment statuses.
const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment links an enrollment to its charge. The registration engine never
// initiates capture; it only reacts to processor callbacks.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	EnrollmentID string        `db:"enrollment_id" json:"enrollment_id"`
	AmountCents  int64         `db:"amount_cents" json:"amount_cents"`
	Status       PaymentStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}
