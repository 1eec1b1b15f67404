package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the back office. Detail carries a small JSON blob
// with action-specific context (changed fields, bulk counts, failure notes).
const (
	AuditCreate     = "create"
	AuditUpdate     = "update"
	AuditDelete     = "delete"
	AuditApprove    = "approve"
	AuditReject     = "reject"
	AuditBulk       = "bulk"
	AuditRoleChange = "role_change"
	AuditExport     = "export"
)

// AuditEntry is one row in the admin audit trail.
type AuditEntry struct {
	ID         string `db:"id" json:"id"`
	AdminID    string `db:"admin_id" json:"admin_id"`
	AdminEmail string `db:"admin_email" json:"admin_email"`
	Action     string `db:"action" json:"action"`
	EntityType string `db:"entity_type" json:"entity_type"`
	EntityID   string `db:"entity_id" json:"entity_id,omitempty"`
	Detail     string `db:"detail" json:"detail,omitempty"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
}

// NewAuditEntry stamps an entry with an ID and the current time.
func NewAuditEntry(adminID, adminEmail, action, entityType, entityID, detail string) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New().String(),
		AdminID:    adminID,
		AdminEmail: adminEmail,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().Unix(),
	}
}
