package models

import "time"

// NotificationKind enumerates enrollment events emitted to the external
// notification collaborator.
type NotificationKind string

// Notification kinds.
const (
	NotificationAdmitted   NotificationKind = "admitted"
	NotificationWaitlisted NotificationKind = "waitlisted"
	NotificationPromoted   NotificationKind = "promoted"
)

// NotificationEvent is the fire-and-forget payload published when an
// enrollment changes state. Delivery failure is logged, never surfaced.
type NotificationEvent struct {
	Event        NotificationKind `json:"event"`
	EnrollmentID string           `json:"enrollment_id"`
	StudentID    string           `json:"student_id"`
	OfferingID   string           `json:"offering_id"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
