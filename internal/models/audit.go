package models

import "time"

// Audit actions inferred by the interception layer or emitted by services.
const (
	AuditActionCreate       = "CREATE"
	AuditActionRead         = "READ"
	AuditActionUpdate       = "UPDATE"
	AuditActionDelete       = "DELETE"
	AuditActionUpload       = "UPLOAD"
	AuditActionApprove      = "APPROVE"
	AuditActionReject       = "REJECT"
	AuditActionStatusChange = "STATUS_CHANGE"
	AuditActionEnroll       = "ENROLL"
	AuditActionPayment      = "PAYMENT"
	AuditActionLogin        = "LOGIN"
	AuditActionLogout       = "LOGOUT"
)

// AuditLog represents an immutable audit trail record. Rows are append-only;
// no update or delete path exists.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter encapsulates allowed search parameters for the audit trail.
type AuditFilter struct {
	Action   string
	Resource string
	UserID   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
