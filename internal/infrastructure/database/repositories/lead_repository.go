package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// LeadRepository reads and writes leads using GORM
type LeadRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewLeadRepository creates a new repository instance
func NewLeadRepository(db *gorm.DB, logger *slog.Logger) *LeadRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &LeadRepository{
		db:     db,
		logger: logger,
	}
}

// ListActiveLeads returns the tenant's non-deleted leads, oldest first
func (r *LeadRepository) ListActiveLeads(ctx context.Context, tenantID uuid.UUID) ([]domain.Lead, error) {
	var leads []domain.Lead

	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_deleted = ?", tenantID, false).
		Order("created_at ASC, id ASC").
		Find(&leads).
		Error

	if err != nil {
		r.logger.Error("failed to list active leads",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return leads, nil
}

// Create inserts leads in batches
func (r *LeadRepository) Create(ctx context.Context, leads []domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(leads, 500).Error; err != nil {
		r.logger.Error("failed to insert leads",
			slog.Int("count", len(leads)),
			slog.Any("error", err))
		return fmt.Errorf("failed to insert leads: %w", err)
	}

	return nil
}
