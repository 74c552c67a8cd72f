package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions
const (
	AuditActionMerge = "Merge"
)

// AuditLog is an append-only record of a state change made by this service
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_tenant_entity" json:"tenant_id"`
	Action     string     `gorm:"type:varchar(50);not null" json:"action"`
	EntityType EntityType `gorm:"type:varchar(50);not null;index:idx_audit_tenant_entity" json:"entity_type"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_tenant_entity" json:"entity_id"`
	Message    string     `gorm:"type:text" json:"message"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate GORM hook
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Models returns every table owned by the CRM schema, in migration order
func Models() []interface{} {
	return []interface{}{
		&Customer{},
		&Lead{},
		&Contact{},
		&Interaction{},
		&Opportunity{},
		&Ticket{},
		&Activity{},
		&AuditLog{},
		&ScanRun{},
	}
}
