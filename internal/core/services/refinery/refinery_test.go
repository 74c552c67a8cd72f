package refinery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

func TestTextRefinery(t *testing.T) {
	r := MustGet(Text)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "collapse inner whitespace", input: "  Acme   Corp ", expected: "Acme Corp"},
		{name: "tabs and newlines", input: "Main\tSt\n42", expected: "Main St 42"},
		{name: "zero width space", input: "Ac\u200bme", expected: "Acme"},
		{name: "byte order mark", input: "\ufeffGlobex", expected: "Globex"},
		{name: "decomposed accent", input: "Jose\u0301", expected: "Jos\u00e9"},
		{name: "case is kept", input: "ACME corp", expected: "ACME corp"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Process(tt.input))
		})
	}
}

func TestIdentifierRefinery_KeepsInnerSpacing(t *testing.T) {
	r := MustGet(Identifier)

	assert.Equal(t, "+1 (555) 123-4567", r.Process(" +1 (555) 123-4567\u200b "))
	// emails are matched case-sensitively, so case is untouched
	assert.Equal(t, "Ann@X.com", r.Process("Ann@X.com\n"))
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "Jose Nunez", FoldAccents("José Núñez"))
}

func TestPipelineSteps(t *testing.T) {
	assert.Equal(t,
		[]string{"remove_invisible", "normalize_nfc", "remove_multiple_whitespace"},
		MustGet(Text).PipelineSteps())
}

func TestRegistry(t *testing.T) {
	assert.Subset(t, ListAvailable(), []string{Identifier, Text})

	_, err := Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	Register(New("upper-test").Then("fold", FoldAccents))
	r, err := Get("upper-test")
	require.NoError(t, err)
	assert.Equal(t, "Cafe", r.Process("Café"))
}

func TestCleanCustomer(t *testing.T) {
	c := domain.Customer{
		Name:        " Acme   Corp ",
		AddressLine: "1 Main\tSt",
		Email:       " a@x.com ",
		Phone:       "555 0100 ",
		TaxID:       "\ufeffB123",
	}
	CleanCustomer(&c)

	assert.Equal(t, "Acme Corp", c.Name)
	assert.Equal(t, "1 Main St", c.AddressLine)
	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, "555 0100", c.Phone)
	assert.Equal(t, "B123", c.TaxID)
}

func TestCleanLead(t *testing.T) {
	l := domain.Lead{FirstName: " Ann ", LastName: "Lee\u200b", CompanyName: "Umbrella  Inc", Email: "ann@z.com "}
	CleanLead(&l)

	assert.Equal(t, "Ann", l.FirstName)
	assert.Equal(t, "Lee", l.LastName)
	assert.Equal(t, "Umbrella Inc", l.CompanyName)
	assert.Equal(t, "ann@z.com", l.Email)
	assert.Equal(t, "Ann Lee", l.FullName())
}
