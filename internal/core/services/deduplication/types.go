package deduplication

import (
	"context"

	"github.com/google/uuid"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// Rule names
const (
	RuleEmailMatch        = "Email Match"
	RulePhoneMatch        = "Phone Match"
	RuleTaxIDMatch        = "Tax ID Match"
	RuleNameAddressFuzzy  = "Name+Address Fuzzy"
	RuleLeadNameMatch     = "Name Match"
	ruleNameSeparator     = ", "
	ConfidenceEmail       = 90
	ConfidencePhone       = 80
	ConfidenceTaxID       = 95
	ConfidenceNameAddress = 70
	ConfidenceLeadName    = 75
)

// Detection modes, used for logging and metrics
const (
	ModeSingle = "single"
	ModeBatch  = "batch"
)

// DuplicateMatch is one candidate record that looks like a duplicate of a subject
type DuplicateMatch struct {
	RecordID      uuid.UUID `json:"record_id"`
	RuleName      string    `json:"rule_name"`
	Confidence    int       `json:"confidence"`
	MatchedFields []string  `json:"matched_fields"`
}

// DuplicateGroup holds every match found for one subject, highest confidence first
type DuplicateGroup struct {
	MasterCandidateID uuid.UUID         `json:"master_candidate_id"`
	EntityType        domain.EntityType `json:"entity_type"`
	Matches           []DuplicateMatch  `json:"matches"`
}

// Config for the fuzzy matching rules
type Config struct {
	CustomerNameThreshold    float64 `json:"customer_name_threshold"`
	CustomerAddressThreshold float64 `json:"customer_address_threshold"`
	LeadNameThreshold        float64 `json:"lead_name_threshold"`
	LeadCompanyThreshold     float64 `json:"lead_company_threshold"`
}

// DefaultConfig returns default matching thresholds
func DefaultConfig() Config {
	return Config{
		CustomerNameThreshold:    0.85,
		CustomerAddressThreshold: 0.85,
		LeadNameThreshold:        0.90,
		LeadCompanyThreshold:     0.85,
	}
}

// CustomerRepository reads a tenant's customers
type CustomerRepository interface {
	// ListActiveCustomers returns every non-deleted customer of the tenant
	ListActiveCustomers(ctx context.Context, tenantID uuid.UUID) ([]domain.Customer, error)
}

// LeadRepository reads a tenant's leads
type LeadRepository interface {
	// ListActiveLeads returns every non-deleted lead of the tenant
	ListActiveLeads(ctx context.Context, tenantID uuid.UUID) ([]domain.Lead, error)
}

// Detector defines the duplicate detection operations
type Detector interface {
	// FindCustomerDuplicates checks newCustomer, or every active customer when nil
	FindCustomerDuplicates(ctx context.Context, tenantID uuid.UUID, newCustomer *domain.Customer) ([]DuplicateGroup, error)

	// FindLeadDuplicates checks newLead, or every active lead when nil
	FindLeadDuplicates(ctx context.Context, tenantID uuid.UUID, newLead *domain.Lead) ([]DuplicateGroup, error)
}
