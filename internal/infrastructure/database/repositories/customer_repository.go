package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// CustomerRepository reads and writes customers using GORM
type CustomerRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewCustomerRepository creates a new repository instance
func NewCustomerRepository(db *gorm.DB, logger *slog.Logger) *CustomerRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// ListActiveCustomers returns the tenant's non-deleted customers, oldest first
func (r *CustomerRepository) ListActiveCustomers(ctx context.Context, tenantID uuid.UUID) ([]domain.Customer, error) {
	var customers []domain.Customer

	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_deleted = ?", tenantID, false).
		Order("created_at ASC, id ASC").
		Find(&customers).
		Error

	if err != nil {
		r.logger.Error("failed to list active customers",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, nil
}

// Create inserts customers in batches
func (r *CustomerRepository) Create(ctx context.Context, customers []domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		CreateInBatches(customers, 500).
		Error

	if err != nil {
		r.logger.Error("failed to insert customers",
			slog.Int("count", len(customers)),
			slog.Any("error", err))
		return fmt.Errorf("failed to insert customers: %w", err)
	}

	return nil
}
