package deduplication

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/metrics"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/tracing"
)

// Service finds likely duplicate customers and leads within a tenant
type Service struct {
	config        Config
	customers     CustomerRepository
	leads         LeadRepository
	customerRules []Rule[domain.Customer]
	leadRules     []Rule[domain.Lead]
	logger        *slog.Logger
}

// NewService creates a new duplicate detection service
func NewService(config Config, customers CustomerRepository, leads LeadRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		config:        config,
		customers:     customers,
		leads:         leads,
		customerRules: CustomerRules(config),
		leadRules:     LeadRules(config),
		logger:        logger,
	}
}

// FindCustomerDuplicates matches newCustomer against the tenant's active customers.
// With a nil newCustomer every active customer is checked against all the others,
// so a pair of duplicates shows up once from each side.
func (s *Service) FindCustomerDuplicates(ctx context.Context, tenantID uuid.UUID, newCustomer *domain.Customer) ([]DuplicateGroup, error) {
	return detect(ctx, s.logger, domain.EntityTypeCustomer, tenantID, newCustomer, s.customers.ListActiveCustomers, s.customerRules)
}

// FindLeadDuplicates matches newLead against the tenant's active leads, or runs a
// full scan when newLead is nil.
func (s *Service) FindLeadDuplicates(ctx context.Context, tenantID uuid.UUID, newLead *domain.Lead) ([]DuplicateGroup, error) {
	return detect(ctx, s.logger, domain.EntityTypeLead, tenantID, newLead, s.leads.ListActiveLeads, s.leadRules)
}

func detect[T domain.Identifiable](
	ctx context.Context,
	logger *slog.Logger,
	entityType domain.EntityType,
	tenantID uuid.UUID,
	newRecord *T,
	load func(context.Context, uuid.UUID) ([]T, error),
	rules []Rule[T],
) (groups []DuplicateGroup, err error) {
	mode := ModeBatch
	if newRecord != nil {
		mode = ModeSingle
	}

	ctx, span := tracing.StartSpan(ctx, "deduplication.detect",
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("entity_type", string(entityType)),
		attribute.String("mode", mode),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.DetectionsTotal.WithLabelValues(string(entityType), mode, metrics.StatusOf(err)).Inc()
		metrics.DetectionDuration.WithLabelValues(string(entityType), mode).Observe(time.Since(start).Seconds())
		tracing.RecordError(span, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Cancelled(err)
	}

	pool, err := load(ctx, tenantID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.FromContext(err)
		}
		logger.Error("Failed to load candidate pool",
			slog.String("tenant_id", tenantID.String()),
			slog.String("entity_type", string(entityType)),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to load active %s records: %w", entityType, err)
	}

	subjects := pool
	if newRecord != nil {
		subjects = []T{*newRecord}
	}

	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Cancelled(err)
		}

		raw := evaluateRules(rules, subject, pool)
		if group, ok := BuildGroup(subject.GetID(), entityType, raw); ok {
			groups = append(groups, group)
		}
	}

	metrics.DuplicateGroupsFound.WithLabelValues(string(entityType)).Add(float64(len(groups)))
	span.SetAttributes(attribute.Int("groups", len(groups)))

	logger.Debug("Duplicate detection finished",
		slog.String("tenant_id", tenantID.String()),
		slog.String("entity_type", string(entityType)),
		slog.String("mode", mode),
		slog.Int("pool_size", len(pool)),
		slog.Int("groups", len(groups)))

	return groups, nil
}
