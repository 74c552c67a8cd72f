package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerType distinguishes people from companies
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "Individual"
	CustomerTypeBusiness   CustomerType = "Business"
)

// Customer is a tenant-owned account record
type Customer struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_customers_tenant_active" json:"tenant_id"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Email       string       `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Phone       string       `gorm:"type:varchar(50)" json:"phone,omitempty"`
	TaxID       string       `gorm:"type:varchar(50);column:tax_id" json:"tax_id,omitempty"`
	Type        CustomerType `gorm:"type:varchar(20);not null;default:'Individual'" json:"type"`
	AddressLine string       `gorm:"type:varchar(500)" json:"address_line,omitempty"`
	IsDeleted   bool         `gorm:"not null;default:false;index:idx_customers_tenant_active" json:"is_deleted"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Contacts      []Contact     `gorm:"foreignKey:CustomerID" json:"contacts,omitempty"`
	Interactions  []Interaction `gorm:"foreignKey:CustomerID" json:"interactions,omitempty"`
	Opportunities []Opportunity `gorm:"foreignKey:CustomerID" json:"opportunities,omitempty"`
	Tickets       []Ticket      `gorm:"foreignKey:CustomerID" json:"tickets,omitempty"`
}

// TableName specifies the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate GORM hook
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Type == "" {
		c.Type = CustomerTypeIndividual
	}
	return nil
}

// GetID implements Identifiable
func (c Customer) GetID() uuid.UUID {
	return c.ID
}

// IsBusiness reports whether the customer is a company
func (c Customer) IsBusiness() bool {
	return c.Type == CustomerTypeBusiness
}

// IsActive reports whether the record takes part in matching and merging
func (c Customer) IsActive() bool {
	return !c.IsDeleted
}
