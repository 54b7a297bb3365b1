package models

import "time"

// EnrollmentBlock bars one student from enrolling in one offering. Blocks are
// scoped per (offering, student) and never expire; removal is explicit.
type EnrollmentBlock struct {
	ID         string    `db:"id" json:"id"`
	OfferingID string    `db:"offering_id" json:"offering_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
	CreatedBy  *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
