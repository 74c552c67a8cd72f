package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/merge"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/logger"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/metrics"
)

// GroupPublisher receives the groups found by a scan
type GroupPublisher interface {
	PublishDuplicateGroups(ctx context.Context, tenantID uuid.UUID, groups []deduplication.DuplicateGroup) error
}

// Handlers processes dedup tasks
type Handlers struct {
	scanner   *deduplication.Scanner
	merger    merge.Executor
	publisher GroupPublisher
	logger    *slog.Logger
}

// NewHandlers creates task handlers. Scan results are only logged when publisher is nil.
func NewHandlers(scanner *deduplication.Scanner, merger merge.Executor, publisher GroupPublisher, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handlers{
		scanner:   scanner,
		merger:    merger,
		publisher: publisher,
		logger:    logger,
	}
}

// Register binds the handlers to the server
func (h *Handlers) Register(server *AsynqServer) {
	server.HandleFunc(TaskTypeDedupScan, h.HandleScan)
	server.HandleFunc(TaskTypeDedupMerge, h.HandleMerge)
}

// HandleScan runs a batch scan and publishes every group found
func (h *Handlers) HandleScan(ctx context.Context, task *asynq.Task) (err error) {
	defer func() {
		metrics.TasksProcessed.WithLabelValues(task.Type(), metrics.StatusOf(err)).Inc()
	}()

	var payload ScanPayload
	if err := decodePayload(task, &payload); err != nil {
		return err
	}

	log := logger.WithTenant(h.logger, payload.TenantID.String()).
		With(slog.String("entity_type", string(payload.EntityType)))

	groups, run, err := h.scanner.Scan(ctx, payload.TenantID, payload.EntityType, domain.ScanTriggerWorker)
	if err != nil {
		return taskError(err)
	}

	if run != nil {
		log = log.With(slog.String("run_id", run.ID.String()))
	}
	log.Info("duplicate scan finished", slog.Int("groups", len(groups)))

	if h.publisher == nil || len(groups) == 0 {
		return nil
	}
	if err := h.publisher.PublishDuplicateGroups(ctx, payload.TenantID, groups); err != nil {
		return fmt.Errorf("failed to publish scan results: %w", err)
	}
	return nil
}

// HandleMerge runs a merge. Requests that cannot succeed on retry are not retried.
func (h *Handlers) HandleMerge(ctx context.Context, task *asynq.Task) (err error) {
	defer func() {
		metrics.TasksProcessed.WithLabelValues(task.Type(), metrics.StatusOf(err)).Inc()
	}()

	var payload MergePayload
	if err := decodePayload(task, &payload); err != nil {
		return err
	}

	log := logger.WithTenant(h.logger, payload.TenantID.String()).
		With(slog.String("entity_type", string(payload.EntityType)))

	var result *merge.MergeResult
	switch payload.EntityType {
	case domain.EntityTypeCustomer:
		result, err = h.merger.MergeCustomers(ctx, payload.TenantID, payload.MasterID, payload.DuplicateIDs)
	case domain.EntityTypeLead:
		result, err = h.merger.MergeLeads(ctx, payload.TenantID, payload.MasterID, payload.DuplicateIDs)
	}
	if err != nil {
		log.Warn("merge task failed",
			slog.String("master_id", payload.MasterID.String()),
			slog.Any("error", err))
		return taskError(err)
	}

	log.Info("merge task completed",
		slog.String("master_id", result.MasterID.String()),
		slog.Int("merged_count", result.MergedCount))
	return nil
}

// taskError stops retries for errors caused by the request itself
func taskError(err error) error {
	if apperrors.IsDomainError(err) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}
