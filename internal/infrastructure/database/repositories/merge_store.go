package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/merge"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// MergeStore opens one database transaction per merge
type MergeStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewMergeStore creates a new merge store
func NewMergeStore(db *gorm.DB, logger *slog.Logger) *MergeStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MergeStore{
		db:     db,
		logger: logger,
	}
}

// Begin starts a transaction scoped to tenantID
func (s *MergeStore) Begin(ctx context.Context, tenantID uuid.UUID) (merge.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("failed to begin transaction",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", tx.Error))
		return nil, apperrors.DatabaseError(tx.Error)
	}

	return &unitOfWork{
		tx:       tx,
		tenantID: tenantID,
		logger:   s.logger,
	}, nil
}

type unitOfWork struct {
	tx       *gorm.DB
	tenantID uuid.UUID
	logger   *slog.Logger
	finished bool
}

func (u *unitOfWork) ResolveActive(ctx context.Context, entityType domain.EntityType, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	table := entityType.TableName()
	if table == "" {
		return nil, apperrors.BadRequest(fmt.Sprintf("unsupported entity type %q", entityType))
	}

	// rows stay locked until the transaction ends
	var found []uuid.UUID
	err := u.tx.WithContext(ctx).
		Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND is_deleted = ? AND id IN ?", u.tenantID, false, ids).
		Order("id").
		Pluck("id", &found).
		Error

	if err != nil {
		u.logger.Error("failed to resolve active records",
			slog.String("table", table),
			slog.Int("requested", len(ids)),
			slog.Any("error", err))
		return nil, apperrors.DatabaseError(err)
	}

	return found, nil
}

func (u *unitOfWork) ReassignDependents(ctx context.Context, kind domain.DependentKind, from, to uuid.UUID) (int64, error) {
	result := u.tx.WithContext(ctx).
		Table(kind.Table).
		Where(kind.ForeignKey+" = ? AND tenant_id = ?", from, u.tenantID).
		Updates(map[string]interface{}{
			kind.ForeignKey: to,
			"updated_at":    time.Now().UTC(),
		})

	if result.Error != nil {
		u.logger.Error("failed to reassign dependents",
			slog.String("table", kind.Table),
			slog.String("from", from.String()),
			slog.Any("error", result.Error))
		return 0, apperrors.DatabaseError(result.Error)
	}

	return result.RowsAffected, nil
}

func (u *unitOfWork) SoftDelete(ctx context.Context, entityType domain.EntityType, id uuid.UUID, at time.Time) error {
	result := u.tx.WithContext(ctx).
		Table(entityType.TableName()).
		Where("id = ? AND tenant_id = ?", id, u.tenantID).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": at,
			"updated_at": at,
		})

	if result.Error != nil {
		u.logger.Error("failed to soft delete record",
			slog.String("entity_type", string(entityType)),
			slog.String("id", id.String()),
			slog.Any("error", result.Error))
		return apperrors.DatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.RecordNotFound(fmt.Sprintf("%s %s", entityType, id))
	}

	return nil
}

func (u *unitOfWork) AppendAudit(ctx context.Context, entry *domain.AuditLog) error {
	if err := u.tx.WithContext(ctx).Create(entry).Error; err != nil {
		u.logger.Error("failed to append audit entry",
			slog.String("entity_id", entry.EntityID.String()),
			slog.Any("error", err))
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.finished {
		return apperrors.Internal("transaction already finished")
	}
	u.finished = true

	if err := u.tx.Commit().Error; err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.finished {
		return nil
	}
	u.finished = true

	if err := u.tx.Rollback().Error; err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}
