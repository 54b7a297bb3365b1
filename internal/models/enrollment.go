package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. CANCELLED is terminal; a student who wants
// back in creates a new enrollment.
const (
	EnrollmentStatusPending    EnrollmentStatus = "PENDING"
	EnrollmentStatusConfirmed  EnrollmentStatus = "CONFIRMED"
	EnrollmentStatusWaitlisted EnrollmentStatus = "WAITLISTED"
	EnrollmentStatusCancelled  EnrollmentStatus = "CANCELLED"
)

// Active reports whether the enrollment still claims a seat or a queue slot.
func (s EnrollmentStatus) Active() bool {
	return s != EnrollmentStatusCancelled
}

// Enrollment is one student's claim on a seat in an offering.
//
// WaitlistPosition is a join-order tiebreak, not a compacted rank: positions
// are assigned max+1 and never renumbered, so the recorded sequence may have
// gaps after promotions.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	OfferingID       string           `db:"offering_id" json:"offering_id"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	WaitlistPosition *int             `db:"waitlist_position" json:"waitlist_position,omitempty"`
	ForceEnrolled    bool             `db:"force_enrolled" json:"force_enrolled"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student and offering info.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string `db:"student_name" json:"student_name"`
	OfferingName string `db:"offering_name" json:"offering_name"`
	TeacherID    string `db:"teacher_id" json:"teacher_id"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	OfferingID string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// SeatUsage summarises seat occupancy for one offering. Forced counts the
// confirmed rows created through the force-enroll override; those are
// sanctioned capacity exceptions and excluded from reconciliation math.
type SeatUsage struct {
	Confirmed  int `db:"confirmed" json:"confirmed"`
	Pending    int `db:"pending" json:"pending"`
	Waitlisted int `db:"waitlisted" json:"waitlisted"`
	Forced     int `db:"forced" json:"forced"`
}

// Occupied is the count the admission engine compares against capacity.
// Pending rows hold a seat for the duration of the payment flow.
func (u SeatUsage) Occupied() int {
	return u.Confirmed + u.Pending
}
