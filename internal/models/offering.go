package models

import "time"

// ClassDay enumerates the legal meeting-day patterns for an offering.
type ClassDay string

// Meeting day patterns. MONDAY_WEDNESDAY is the only multi-day pattern.
const (
	DayMondayWednesday ClassDay = "MONDAY_WEDNESDAY"
	DayTuesday         ClassDay = "TUESDAY"
	DayThursday        ClassDay = "THURSDAY"
	DayFriday          ClassDay = "FRIDAY"
)

// ClassBlock enumerates the time blocks of the school day.
type ClassBlock string

// Time blocks. LUNCH exists on the timetable but is never a legal class slot.
const (
	Block1     ClassBlock = "BLOCK_1"
	Block2     ClassBlock = "BLOCK_2"
	Block3     ClassBlock = "BLOCK_3"
	Block4     ClassBlock = "BLOCK_4"
	Block5     ClassBlock = "BLOCK_5"
	BlockLunch ClassBlock = "LUNCH"
)

// OfferingStatus represents the lifecycle of a class offering.
type OfferingStatus string

// Possible offering statuses.
const (
	OfferingStatusDraft     OfferingStatus = "DRAFT"
	OfferingStatusPublished OfferingStatus = "PUBLISHED"
	OfferingStatusCancelled OfferingStatus = "CANCELLED"
	OfferingStatusCompleted OfferingStatus = "COMPLETED"
)

// Terminal reports whether the offering can no longer hold classes.
// Cancelled and completed offerings are excluded from conflict checks.
func (s OfferingStatus) Terminal() bool {
	return s == OfferingStatusCancelled || s == OfferingStatusCompleted
}

// Offering is a scheduled class with a seat capacity.
type Offering struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	TeacherID  string         `db:"teacher_id" json:"teacher_id"`
	Room       *string        `db:"room" json:"room,omitempty"`
	Day        ClassDay       `db:"day" json:"day"`
	Block      ClassBlock     `db:"block" json:"block"`
	Capacity   int            `db:"capacity" json:"capacity"`
	PriceCents int64          `db:"price_cents" json:"price_cents"`
	Status     OfferingStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// OfferingDetail enriches Offering with teacher info for responses.
type OfferingDetail struct {
	Offering
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// OfferingFilter provides filters for listing offerings.
type OfferingFilter struct {
	TeacherID string
	Day       ClassDay
	Block     ClassBlock
	Status    OfferingStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SlotConflict describes an existing offering colliding with a candidate slot.
type SlotConflict struct {
	OfferingID string     `json:"offering_id"`
	Name       string     `json:"name"`
	TeacherID  string     `json:"teacher_id"`
	Room       *string    `json:"room,omitempty"`
	Day        ClassDay   `json:"day"`
	Block      ClassBlock `json:"block"`
	Dimension  string     `json:"dimension"`
}

// SlotConflictError is returned when a candidate slot collides with an
// existing offering on teacher or room.
type SlotConflictError struct {
	Dimension string       `json:"dimension"`
	Message   string       `json:"message"`
	Conflict  SlotConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *SlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
