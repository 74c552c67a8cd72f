package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead is a prospective customer captured before qualification
type Lead struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_leads_tenant_active" json:"tenant_id"`
	FirstName   string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string     `gorm:"type:varchar(100)" json:"last_name"`
	Email       string     `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Phone       string     `gorm:"type:varchar(50)" json:"phone,omitempty"`
	CompanyName string     `gorm:"type:varchar(255)" json:"company_name,omitempty"`
	IsDeleted   bool       `gorm:"not null;default:false;index:idx_leads_tenant_active" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Activities []Activity `gorm:"foreignKey:LeadID" json:"activities,omitempty"`
}

// TableName specifies the table name for GORM
func (Lead) TableName() string {
	return "leads"
}

// BeforeCreate GORM hook
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// GetID implements Identifiable
func (l Lead) GetID() uuid.UUID {
	return l.ID
}

// FullName joins first and last name, ignoring blanks
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// IsActive reports whether the record takes part in matching and merging
func (l Lead) IsActive() bool {
	return !l.IsDeleted
}
