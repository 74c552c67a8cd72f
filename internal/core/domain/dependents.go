package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a person attached to a customer account
type Contact struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index:idx_contacts_customer" json:"customer_id"`
	FullName   string    `gorm:"type:varchar(255)" json:"full_name"`
	Email      string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone      string    `gorm:"type:varchar(50)" json:"phone,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Interaction records a call, meeting or email with a customer
type Interaction struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index:idx_interactions_customer" json:"customer_id"`
	Channel    string    `gorm:"type:varchar(50)" json:"channel"`
	Summary    string    `gorm:"type:text" json:"summary,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Interaction) TableName() string { return "interactions" }

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Opportunity is a potential deal with a customer
type Opportunity struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index:idx_opportunities_customer" json:"customer_id"`
	Title      string    `gorm:"type:varchar(255)" json:"title"`
	Stage      string    `gorm:"type:varchar(50)" json:"stage"`
	Amount     float64   `gorm:"type:decimal(14,2)" json:"amount"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Opportunity) TableName() string { return "opportunities" }

func (o *Opportunity) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Ticket is a support case raised by a customer
type Ticket struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index:idx_tickets_customer" json:"customer_id"`
	Subject    string    `gorm:"type:varchar(255)" json:"subject"`
	Status     string    `gorm:"type:varchar(50)" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Ticket) TableName() string { return "tickets" }

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Activity is a follow-up task or touchpoint logged against a lead
type Activity struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	LeadID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_activities_lead" json:"lead_id"`
	Kind      string     `gorm:"type:varchar(50)" json:"kind"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Activity) TableName() string { return "activities" }

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
