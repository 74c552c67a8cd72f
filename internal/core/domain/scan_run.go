package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scan run statuses
const (
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// Scan triggers
const (
	ScanTriggerCLI    = "cli"
	ScanTriggerWorker = "worker"
)

// ScanRun records one batch duplicate scan of a tenant
type ScanRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_scan_runs_tenant_started" json:"tenant_id"`
	EntityType  EntityType `gorm:"type:varchar(50);not null" json:"entity_type"`
	Trigger     string     `gorm:"type:varchar(20);not null" json:"trigger"`
	Status      string     `gorm:"type:varchar(20);not null;default:'running'" json:"status"`
	GroupCount  int        `gorm:"default:0" json:"group_count"`
	MatchCount  int        `gorm:"default:0" json:"match_count"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	ReportPath  string     `gorm:"type:text" json:"report_path,omitempty"`
	StartedAt   time.Time  `gorm:"not null;index:idx_scan_runs_tenant_started" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ScanRun) TableName() string {
	return "scan_runs"
}

// BeforeCreate GORM hook - called before creating a record
func (r *ScanRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewScanRun starts a run in the running state
func NewScanRun(tenantID uuid.UUID, entityType EntityType, trigger string, at time.Time) *ScanRun {
	return &ScanRun{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EntityType: entityType,
		Trigger:    trigger,
		Status:     ScanStatusRunning,
		StartedAt:  at,
	}
}

// Complete marks the run finished with the given counts
func (r *ScanRun) Complete(groupCount, matchCount int, at time.Time) {
	r.Status = ScanStatusCompleted
	r.GroupCount = groupCount
	r.MatchCount = matchCount
	r.CompletedAt = &at
}

// Fail marks the run finished with an error
func (r *ScanRun) Fail(err error, at time.Time) {
	r.Status = ScanStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.CompletedAt = &at
}

// Duration returns how long the run took, or zero while it is running
func (r *ScanRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ValidScanStatuses returns list of valid scan run statuses
func ValidScanStatuses() []string {
	return []string{
		ScanStatusRunning,
		ScanStatusCompleted,
		ScanStatusFailed,
	}
}

// IsValidScanStatus checks if a status is valid
func IsValidScanStatus(status string) bool {
	for _, s := range ValidScanStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
