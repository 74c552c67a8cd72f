package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/refinery"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/parsers"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// RecordCheck is the single-record detection outcome for one intake record
type RecordCheck struct {
	Index   int                           `json:"index"` // 1-based among accepted records
	Label   string                        `json:"label"`
	Matches []deduplication.DuplicateMatch `json:"matches"`
}

// intakeBatch holds the cleaned records read from one intake file
type intakeBatch struct {
	entityType domain.EntityType
	customers  []domain.Customer
	leads      []domain.Lead
	rowErrors  []parsers.RowError
}

func newIntakeBatch(sheet *parsers.Sheet, tenantID uuid.UUID, entityType domain.EntityType) (*intakeBatch, error) {
	batch := &intakeBatch{entityType: entityType}
	switch entityType {
	case domain.EntityTypeCustomer:
		batch.customers, batch.rowErrors = parsers.Customers(sheet, tenantID)
	case domain.EntityTypeLead:
		batch.leads, batch.rowErrors = parsers.Leads(sheet, tenantID)
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("unsupported entity type %q", entityType))
	}

	for i := range batch.customers {
		refinery.CleanCustomer(&batch.customers[i])
	}
	for i := range batch.leads {
		refinery.CleanLead(&batch.leads[i])
	}
	return batch, nil
}

func (b *intakeBatch) size() int {
	return len(b.customers) + len(b.leads)
}

// check runs single-record detection for every record against the stored ones
func (b *intakeBatch) check(ctx context.Context, detector deduplication.Detector, tenantID uuid.UUID) ([]RecordCheck, error) {
	checks := make([]RecordCheck, 0, b.size())

	for i := range b.customers {
		groups, err := detector.FindCustomerDuplicates(ctx, tenantID, &b.customers[i])
		if err != nil {
			return nil, err
		}
		checks = append(checks, newRecordCheck(i, b.customers[i].Name, groups))
	}
	for i := range b.leads {
		groups, err := detector.FindLeadDuplicates(ctx, tenantID, &b.leads[i])
		if err != nil {
			return nil, err
		}
		checks = append(checks, newRecordCheck(i, b.leads[i].FullName(), groups))
	}

	return checks, nil
}

// withoutDuplicates keeps only the records whose check found no match
func (b *intakeBatch) withoutDuplicates(checks []RecordCheck) *intakeBatch {
	kept := &intakeBatch{entityType: b.entityType, rowErrors: b.rowErrors}
	for i, c := range checks {
		if len(c.Matches) > 0 {
			continue
		}
		switch b.entityType {
		case domain.EntityTypeCustomer:
			kept.customers = append(kept.customers, b.customers[i])
		case domain.EntityTypeLead:
			kept.leads = append(kept.leads, b.leads[i])
		}
	}
	return kept
}

func newRecordCheck(i int, label string, groups []deduplication.DuplicateGroup) RecordCheck {
	check := RecordCheck{Index: i + 1, Label: label, Matches: []deduplication.DuplicateMatch{}}
	if len(groups) > 0 {
		check.Matches = groups[0].Matches
	}
	return check
}
