package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		input string
		want  EntityType
		ok    bool
	}{
		{"Customer", EntityTypeCustomer, true},
		{"customers", EntityTypeCustomer, true},
		{"lead", EntityTypeLead, true},
		{"Leads", "", false},
		{"contact", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseEntityType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntityType_TableName(t *testing.T) {
	assert.Equal(t, "customers", EntityTypeCustomer.TableName())
	assert.Equal(t, "leads", EntityTypeLead.TableName())
	assert.Empty(t, EntityType("Contact").TableName())
}

func TestDependentsOf(t *testing.T) {
	customer := DependentsOf(EntityTypeCustomer)
	assert.Len(t, customer, 4)
	for _, kind := range customer {
		assert.Equal(t, "customer_id", kind.ForeignKey)
	}

	assert.Equal(t, []DependentKind{DependentActivities}, DependentsOf(EntityTypeLead))
	assert.Nil(t, DependentsOf(EntityType("Contact")))
}

func TestDependentKinds_MatchModelTables(t *testing.T) {
	assert.Equal(t, Contact{}.TableName(), DependentContacts.Table)
	assert.Equal(t, Interaction{}.TableName(), DependentInteractions.Table)
	assert.Equal(t, Opportunity{}.TableName(), DependentOpportunities.Table)
	assert.Equal(t, Ticket{}.TableName(), DependentTickets.Table)
	assert.Equal(t, Activity{}.TableName(), DependentActivities.Table)
}

func TestLead_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Lead{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", Lead{FirstName: "Ada"}.FullName())
	assert.Equal(t, "Lovelace", Lead{LastName: "Lovelace"}.FullName())
	assert.Empty(t, Lead{}.FullName())
}

func TestCustomer_Flags(t *testing.T) {
	c := Customer{Type: CustomerTypeBusiness}
	assert.True(t, c.IsBusiness())
	assert.True(t, c.IsActive())

	c.IsDeleted = true
	assert.False(t, c.IsActive())
	assert.False(t, Customer{Type: CustomerTypeIndividual}.IsBusiness())
}
