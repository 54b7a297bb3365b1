package models

import "time"

// AuditAction constants represent actions to be logged. Every admin override
// of the admission engine must leave one of these records.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionForceEnroll      = "FORCE_ENROLL"
	AuditActionAdminCancel      = "ADMIN_CANCEL_ENROLLMENT"
	AuditActionReconcile        = "ENROLLMENT_RECONCILE"
	AuditActionOfferingPublish  = "OFFERING_PUBLISH"
	AuditActionOfferingCancel   = "OFFERING_CANCEL"
	AuditActionOfferingComplete = "OFFERING_COMPLETE"
	AuditActionBlockCreate      = "ENROLLMENT_BLOCK_CREATE"
	AuditActionBlockRemove      = "ENROLLMENT_BLOCK_REMOVE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
