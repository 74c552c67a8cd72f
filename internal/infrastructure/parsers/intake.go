package parsers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// column aliases, already in canonical form
var (
	nameColumns        = []string{"name", "customername", "companyname", "company", "fullname"}
	emailColumns       = []string{"email", "emailaddress", "mail"}
	phoneColumns       = []string{"phone", "phonenumber", "telephone", "tel", "mobile"}
	taxIDColumns       = []string{"taxid", "vat", "vatnumber", "ein", "taxnumber"}
	typeColumns        = []string{"type", "customertype", "kind"}
	addressColumns     = []string{"address", "addressline", "street", "streetaddress"}
	firstNameColumns   = []string{"firstname", "givenname", "first"}
	lastNameColumns    = []string{"lastname", "surname", "familyname", "last"}
	leadCompanyColumns = []string{"companyname", "company", "organization", "organisation", "account"}
)

// RowError reports an input row that could not be turned into a record
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Customers maps sheet rows to unsaved customers of the tenant.
// Row numbers in errors are 1-based over the rows that were kept.
func Customers(sheet *Sheet, tenantID uuid.UUID) ([]domain.Customer, []RowError) {
	var customers []domain.Customer
	var rowErrors []RowError

	for i, row := range sheet.Rows {
		customer := domain.Customer{
			TenantID:    tenantID,
			Name:        row.first(nameColumns),
			Email:       row.first(emailColumns),
			Phone:       row.first(phoneColumns),
			TaxID:       row.first(taxIDColumns),
			Type:        parseCustomerType(row.first(typeColumns)),
			AddressLine: row.first(addressColumns),
		}
		if customer.Name == "" {
			rowErrors = append(rowErrors, RowError{Row: i + 1, Reason: "customer name is required"})
			continue
		}
		customers = append(customers, customer)
	}

	return customers, rowErrors
}

// Leads maps sheet rows to unsaved leads of the tenant
func Leads(sheet *Sheet, tenantID uuid.UUID) ([]domain.Lead, []RowError) {
	var leads []domain.Lead
	var rowErrors []RowError

	for i, row := range sheet.Rows {
		lead := domain.Lead{
			TenantID:    tenantID,
			FirstName:   row.first(firstNameColumns),
			LastName:    row.first(lastNameColumns),
			Email:       row.first(emailColumns),
			Phone:       row.first(phoneColumns),
			CompanyName: row.first(leadCompanyColumns),
		}
		if lead.FullName() == "" && lead.Email == "" && lead.Phone == "" {
			rowErrors = append(rowErrors, RowError{Row: i + 1, Reason: "lead needs a name, email or phone"})
			continue
		}
		leads = append(leads, lead)
	}

	return leads, rowErrors
}

func (r Row) first(columns []string) string {
	for _, col := range columns {
		if v := strings.TrimSpace(r[col]); v != "" {
			return v
		}
	}
	return ""
}

func parseCustomerType(value string) domain.CustomerType {
	switch strings.ToLower(value) {
	case "business", "company", "b2b", "organization", "organisation":
		return domain.CustomerTypeBusiness
	default:
		return domain.CustomerTypeIndividual
	}
}
