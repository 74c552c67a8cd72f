package merge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// MergeResult summarizes a committed merge
type MergeResult struct {
	MasterID    uuid.UUID        `json:"master_id"`
	MergedIDs   []uuid.UUID      `json:"merged_ids"`
	MergedCount int              `json:"merged_count"`
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Reassigned  map[string]int64 `json:"reassigned,omitempty"`
}

// Store opens tenant-scoped units of work
type Store interface {
	Begin(ctx context.Context, tenantID uuid.UUID) (UnitOfWork, error)
}

// UnitOfWork is a single transaction owned by one merge call. Nothing it writes is
// visible until Commit; Rollback after Commit is a no-op.
type UnitOfWork interface {
	// ResolveActive locks and returns the ids that exist, belong to the tenant and are not deleted
	ResolveActive(ctx context.Context, entityType domain.EntityType, ids []uuid.UUID) ([]uuid.UUID, error)

	// ReassignDependents repoints every row of kind owned by from to to, returning the row count
	ReassignDependents(ctx context.Context, kind domain.DependentKind, from, to uuid.UUID) (int64, error)

	// SoftDelete flags the record as deleted at the given time
	SoftDelete(ctx context.Context, entityType domain.EntityType, id uuid.UUID, at time.Time) error

	// AppendAudit records an audit entry inside the transaction
	AppendAudit(ctx context.Context, entry *domain.AuditLog) error

	Commit() error
	Rollback() error
}

// Locker serializes merges that share a key
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Publisher announces committed merges
type Publisher interface {
	PublishRecordsMerged(ctx context.Context, tenantID uuid.UUID, entityType domain.EntityType, result *MergeResult) error
}

// Executor defines the merge operations
type Executor interface {
	MergeCustomers(ctx context.Context, tenantID, masterID uuid.UUID, duplicateIDs []uuid.UUID) (*MergeResult, error)
	MergeLeads(ctx context.Context, tenantID, masterID uuid.UUID, duplicateIDs []uuid.UUID) (*MergeResult, error)
}
