package domain

import (
	"github.com/google/uuid"
)

// EntityType tags the kind of master record a duplicate group or merge refers to
type EntityType string

const (
	EntityTypeCustomer EntityType = "Customer"
	EntityTypeLead     EntityType = "Lead"
)

// ValidEntityTypes returns the entity types that support resolution
func ValidEntityTypes() []EntityType {
	return []EntityType{EntityTypeCustomer, EntityTypeLead}
}

// ParseEntityType accepts the canonical name or its lowercase/plural forms
func ParseEntityType(s string) (EntityType, bool) {
	switch s {
	case "Customer", "customer", "customers":
		return EntityTypeCustomer, true
	case "Lead", "lead", "leads":
		return EntityTypeLead, true
	}
	return "", false
}

// TableName returns the table holding records of this type
func (t EntityType) TableName() string {
	switch t {
	case EntityTypeCustomer:
		return Customer{}.TableName()
	case EntityTypeLead:
		return Lead{}.TableName()
	}
	return ""
}

// Identifiable is implemented by every record that can be matched
type Identifiable interface {
	GetID() uuid.UUID
}

// DependentKind describes a table whose rows point at a master record through ForeignKey
type DependentKind struct {
	Name       string
	Table      string
	ForeignKey string
}

var (
	DependentContacts      = DependentKind{Name: "contacts", Table: "contacts", ForeignKey: "customer_id"}
	DependentInteractions  = DependentKind{Name: "interactions", Table: "interactions", ForeignKey: "customer_id"}
	DependentOpportunities = DependentKind{Name: "opportunities", Table: "opportunities", ForeignKey: "customer_id"}
	DependentTickets       = DependentKind{Name: "tickets", Table: "tickets", ForeignKey: "customer_id"}
	DependentActivities    = DependentKind{Name: "activities", Table: "activities", ForeignKey: "lead_id"}
)

// DependentsOf returns the dependent kinds repointed when records of this type are merged
func DependentsOf(t EntityType) []DependentKind {
	switch t {
	case EntityTypeCustomer:
		return []DependentKind{DependentContacts, DependentInteractions, DependentOpportunities, DependentTickets}
	case EntityTypeLead:
		return []DependentKind{DependentActivities}
	}
	return nil
}
