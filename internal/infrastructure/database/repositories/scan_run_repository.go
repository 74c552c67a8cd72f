package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// ScanRunRepository stores the history of batch scans
type ScanRunRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewScanRunRepository creates a new repository instance
func NewScanRunRepository(db *gorm.DB, logger *slog.Logger) *ScanRunRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &ScanRunRepository{
		db:     db,
		logger: logger,
	}
}

// StartRun inserts a new run
func (r *ScanRunRepository) StartRun(ctx context.Context, run *domain.ScanRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		r.logger.Error("failed to insert scan run",
			slog.String("tenant_id", run.TenantID.String()),
			slog.Any("error", err))
		return fmt.Errorf("failed to insert scan run: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counts of a run
func (r *ScanRunRepository) FinishRun(ctx context.Context, run *domain.ScanRun) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ScanRun{}).
		Where("id = ? AND tenant_id = ?", run.ID, run.TenantID).
		Updates(map[string]interface{}{
			"status":       run.Status,
			"group_count":  run.GroupCount,
			"match_count":  run.MatchCount,
			"error":        run.Error,
			"completed_at": run.CompletedAt,
		})

	if result.Error != nil {
		r.logger.Error("failed to update scan run",
			slog.String("run_id", run.ID.String()),
			slog.Any("error", result.Error))
		return fmt.Errorf("failed to update scan run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.RecordNotFound("scan run " + run.ID.String())
	}
	return nil
}

// SetReportPath links a saved report to a run
func (r *ScanRunRepository) SetReportPath(ctx context.Context, tenantID, runID uuid.UUID, path string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.ScanRun{}).
		Where("id = ? AND tenant_id = ?", runID, tenantID).
		Update("report_path", path).
		Error

	if err != nil {
		return fmt.Errorf("failed to set report path: %w", err)
	}
	return nil
}

// ListRecent returns the tenant's latest runs, newest first
func (r *ScanRunRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []domain.ScanRun
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).
		Error

	if err != nil {
		r.logger.Error("failed to list scan runs",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}

	return runs, nil
}
