package merge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/metrics"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/tracing"
)

// Service merges duplicate records into a surviving master record
type Service struct {
	store     Store
	locker    Locker
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a new merge service. A nil locker falls back to an in-process
// keyed mutex; a nil publisher disables merge events.
func NewService(store Store, locker Locker, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if locker == nil {
		locker = NewLocalLocker()
	}

	return &Service{
		store:     store,
		locker:    locker,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// MergeCustomers folds duplicateIDs into masterID, moving contacts, interactions,
// opportunities and tickets to the master and soft-deleting each duplicate.
func (s *Service) MergeCustomers(ctx context.Context, tenantID, masterID uuid.UUID, duplicateIDs []uuid.UUID) (*MergeResult, error) {
	return s.merge(ctx, domain.EntityTypeCustomer, tenantID, masterID, duplicateIDs)
}

// MergeLeads folds duplicateIDs into masterID, moving activities to the master.
func (s *Service) MergeLeads(ctx context.Context, tenantID, masterID uuid.UUID, duplicateIDs []uuid.UUID) (*MergeResult, error) {
	return s.merge(ctx, domain.EntityTypeLead, tenantID, masterID, duplicateIDs)
}

func (s *Service) merge(ctx context.Context, entityType domain.EntityType, tenantID, masterID uuid.UUID, duplicateIDs []uuid.UUID) (result *MergeResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "merge.execute",
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("entity_type", string(entityType)),
		attribute.String("master_id", masterID.String()),
		attribute.Int("duplicates", len(duplicateIDs)),
	)
	defer span.End()

	log := s.logger.With(
		slog.String("tenant_id", tenantID.String()),
		slog.String("entity_type", string(entityType)),
		slog.String("master_id", masterID.String()),
	)

	start := time.Now()
	defer func() {
		metrics.MergesTotal.WithLabelValues(string(entityType), metrics.StatusOf(err)).Inc()
		metrics.MergeDuration.WithLabelValues(string(entityType)).Observe(time.Since(start).Seconds())
		tracing.RecordError(span, err)
	}()

	if err := validateRequest(masterID, duplicateIDs); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Cancelled(err)
	}

	key := LockKey(tenantID, entityType)
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Cancelled(err)
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.LockNotAcquired(key, err)
	}
	defer release()

	uow, err := s.store.Begin(ctx, tenantID)
	if err != nil {
		log.Error("Failed to begin merge transaction", slog.Any("error", err))
		return nil, apperrors.FromContext(err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := uow.Rollback(); rbErr != nil {
			log.Warn("Failed to roll back merge transaction", slog.Any("error", rbErr))
		}
	}()

	masters, err := uow.ResolveActive(ctx, entityType, []uuid.UUID{masterID})
	if err != nil {
		return nil, apperrors.FromContext(err)
	}
	if len(masters) == 0 {
		return nil, apperrors.NotFound(fmt.Sprintf("%s %s not found", entityType, masterID)).
			WithDetails("master_id", masterID.String())
	}

	resolved, err := uow.ResolveActive(ctx, entityType, duplicateIDs)
	if err != nil {
		return nil, apperrors.FromContext(err)
	}
	if len(resolved) != len(duplicateIDs) {
		return nil, apperrors.InconsistentInput(len(duplicateIDs), len(resolved)).
			WithDetails("missing_ids", missingIDs(duplicateIDs, resolved))
	}

	mergedAt := s.now().UTC()
	reassigned := make(map[string]int64)
	message := fmt.Sprintf("Merged into %s %s", entityType, masterID)

	for _, duplicateID := range duplicateIDs {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Cancelled(err)
		}

		for _, kind := range domain.DependentsOf(entityType) {
			moved, err := uow.ReassignDependents(ctx, kind, duplicateID, masterID)
			if err != nil {
				return nil, apperrors.FromContext(err)
			}
			reassigned[kind.Name] += moved
		}

		if err := uow.SoftDelete(ctx, entityType, duplicateID, mergedAt); err != nil {
			return nil, apperrors.FromContext(err)
		}

		entry := &domain.AuditLog{
			TenantID:   tenantID,
			Action:     domain.AuditActionMerge,
			EntityType: entityType,
			EntityID:   duplicateID,
			Message:    message,
		}
		if err := uow.AppendAudit(ctx, entry); err != nil {
			return nil, apperrors.FromContext(err)
		}
	}

	if err := uow.Commit(); err != nil {
		log.Error("Failed to commit merge", slog.Any("error", err))
		return nil, apperrors.FromContext(err)
	}
	committed = true

	result = &MergeResult{
		MasterID:    masterID,
		MergedIDs:   slices.Clone(duplicateIDs),
		MergedCount: len(duplicateIDs),
		Success:     true,
		Message:     fmt.Sprintf("Merged %d %s record(s) into %s", len(duplicateIDs), entityType, masterID),
		Reassigned:  reassigned,
	}

	metrics.RecordsMerged.WithLabelValues(string(entityType)).Add(float64(result.MergedCount))
	for name, moved := range reassigned {
		metrics.DependentsReassigned.WithLabelValues(string(entityType), name).Add(float64(moved))
	}

	log.Info("Merge committed",
		slog.Int("merged_count", result.MergedCount),
		slog.Any("reassigned", reassigned))

	s.publish(ctx, log, tenantID, entityType, result)

	return result, nil
}

// publish is best effort; the merge is already committed
func (s *Service) publish(ctx context.Context, log *slog.Logger, tenantID uuid.UUID, entityType domain.EntityType, result *MergeResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordsMerged(ctx, tenantID, entityType, result); err != nil {
		log.Warn("Failed to publish merge event", slog.Any("error", err))
	}
}

func validateRequest(masterID uuid.UUID, duplicateIDs []uuid.UUID) error {
	if masterID == uuid.Nil {
		return apperrors.BadRequest("master id is required")
	}
	if slices.Contains(duplicateIDs, masterID) {
		return apperrors.BadRequest("master id cannot be merged into itself").
			WithDetails("master_id", masterID.String())
	}

	seen := make(map[uuid.UUID]struct{}, len(duplicateIDs))
	var repeated []string
	for _, id := range duplicateIDs {
		if _, ok := seen[id]; ok {
			repeated = append(repeated, id.String())
			continue
		}
		seen[id] = struct{}{}
	}
	if len(repeated) > 0 {
		return apperrors.InconsistentInput(len(duplicateIDs), len(seen)).
			WithDetails("repeated_ids", repeated)
	}
	return nil
}

func missingIDs(requested, resolved []uuid.UUID) []string {
	var missing []string
	for _, id := range requested {
		if !slices.Contains(resolved, id) {
			missing = append(missing, id.String())
		}
	}
	return missing
}
