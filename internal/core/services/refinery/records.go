package refinery

import (
	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// CleanCustomer cleans the customer's fields in place
func CleanCustomer(c *domain.Customer) {
	text, id := MustGet(Text), MustGet(Identifier)

	c.Name = text.Process(c.Name)
	c.AddressLine = text.Process(c.AddressLine)
	c.Email = id.Process(c.Email)
	c.Phone = id.Process(c.Phone)
	c.TaxID = id.Process(c.TaxID)
}

// CleanLead cleans the lead's fields in place
func CleanLead(l *domain.Lead) {
	text, id := MustGet(Text), MustGet(Identifier)

	l.FirstName = text.Process(l.FirstName)
	l.LastName = text.Process(l.LastName)
	l.CompanyName = text.Process(l.CompanyName)
	l.Email = id.Process(l.Email)
	l.Phone = id.Process(l.Phone)
}
