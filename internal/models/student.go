package models

import "time"

// Student is a family member who can be enrolled in offerings. The guardian
// user owns the record and acts on the student's behalf.
type Student struct {
	ID         string    `db:"id" json:"id"`
	GuardianID string    `db:"guardian_id" json:"guardian_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
