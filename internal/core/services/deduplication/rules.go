package deduplication

import (
	"slices"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/similarity"
)

// Rule evaluates one matching condition for a subject against a candidate pool.
// The subject itself is never reported, even when it is part of the pool.
type Rule[T domain.Identifiable] interface {
	Name() string
	Evaluate(subject T, pool []T) []DuplicateMatch
}

// fieldRule is a Rule driven by two predicates. applies gates the whole rule on the
// subject; a rule that does not apply produces nothing rather than zero scores.
type fieldRule[T domain.Identifiable] struct {
	name       string
	confidence int
	fields     []string
	applies    func(subject T) bool
	matches    func(subject, candidate T) bool
}

func (r fieldRule[T]) Name() string {
	return r.name
}

func (r fieldRule[T]) Evaluate(subject T, pool []T) []DuplicateMatch {
	if !r.applies(subject) {
		return nil
	}

	subjectID := subject.GetID()
	var matches []DuplicateMatch
	for _, candidate := range pool {
		if candidate.GetID() == subjectID {
			continue
		}
		if r.matches(subject, candidate) {
			matches = append(matches, DuplicateMatch{
				RecordID:      candidate.GetID(),
				RuleName:      r.name,
				Confidence:    r.confidence,
				MatchedFields: slices.Clone(r.fields),
			})
		}
	}
	return matches
}

// CustomerRules returns the customer rules in evaluation order
func CustomerRules(cfg Config) []Rule[domain.Customer] {
	return []Rule[domain.Customer]{
		fieldRule[domain.Customer]{
			name:       RuleEmailMatch,
			confidence: ConfidenceEmail,
			fields:     []string{"Email"},
			applies:    func(s domain.Customer) bool { return !similarity.IsBlank(s.Email) },
			matches:    func(s, c domain.Customer) bool { return c.Email == s.Email },
		},
		fieldRule[domain.Customer]{
			name:       RulePhoneMatch,
			confidence: ConfidencePhone,
			fields:     []string{"Phone"},
			applies:    func(s domain.Customer) bool { return similarity.NormalizePhone(s.Phone) != "" },
			matches: func(s, c domain.Customer) bool {
				return similarity.NormalizePhone(c.Phone) == similarity.NormalizePhone(s.Phone)
			},
		},
		fieldRule[domain.Customer]{
			name:       RuleTaxIDMatch,
			confidence: ConfidenceTaxID,
			fields:     []string{"TaxId"},
			applies: func(s domain.Customer) bool {
				return s.IsBusiness() && !similarity.IsBlank(s.TaxID)
			},
			matches: func(s, c domain.Customer) bool {
				return c.IsBusiness() && c.TaxID == s.TaxID
			},
		},
		fieldRule[domain.Customer]{
			name:       RuleNameAddressFuzzy,
			confidence: ConfidenceNameAddress,
			fields:     []string{"Name", "Address"},
			applies: func(s domain.Customer) bool {
				return !similarity.IsBlank(s.Name) && !similarity.IsBlank(s.AddressLine)
			},
			matches: func(s, c domain.Customer) bool {
				return similarity.AtLeast(s.Name, c.Name, cfg.CustomerNameThreshold) &&
					similarity.AtLeast(s.AddressLine, c.AddressLine, cfg.CustomerAddressThreshold)
			},
		},
	}
}

// LeadRules returns the lead rules in evaluation order
func LeadRules(cfg Config) []Rule[domain.Lead] {
	return []Rule[domain.Lead]{
		fieldRule[domain.Lead]{
			name:       RuleEmailMatch,
			confidence: ConfidenceEmail,
			fields:     []string{"Email"},
			applies:    func(s domain.Lead) bool { return !similarity.IsBlank(s.Email) },
			matches:    func(s, c domain.Lead) bool { return c.Email == s.Email },
		},
		fieldRule[domain.Lead]{
			name:       RulePhoneMatch,
			confidence: ConfidencePhone,
			fields:     []string{"Phone"},
			applies:    func(s domain.Lead) bool { return similarity.NormalizePhone(s.Phone) != "" },
			matches: func(s, c domain.Lead) bool {
				return similarity.NormalizePhone(c.Phone) == similarity.NormalizePhone(s.Phone)
			},
		},
		fieldRule[domain.Lead]{
			name:       RuleLeadNameMatch,
			confidence: ConfidenceLeadName,
			fields:     []string{"FirstName", "LastName"},
			applies:    func(s domain.Lead) bool { return s.FullName() != "" },
			matches: func(s, c domain.Lead) bool {
				if !similarity.AtLeast(s.FullName(), c.FullName(), cfg.LeadNameThreshold) {
					return false
				}
				if similarity.IsBlank(s.CompanyName) || similarity.IsBlank(c.CompanyName) {
					return true
				}
				return similarity.Similarity(s.CompanyName, c.CompanyName) >= cfg.LeadCompanyThreshold
			},
		},
	}
}

// evaluateRules runs every rule for one subject and concatenates the hits in rule order
func evaluateRules[T domain.Identifiable](rules []Rule[T], subject T, pool []T) []DuplicateMatch {
	var raw []DuplicateMatch
	for _, rule := range rules {
		raw = append(raw, rule.Evaluate(subject, pool)...)
	}
	return raw
}
