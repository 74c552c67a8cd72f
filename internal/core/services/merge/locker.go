package merge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// LockKey returns the key merges of one entity type within a tenant serialize on
func LockKey(tenantID uuid.UUID, entityType domain.EntityType) string {
	return fmt.Sprintf("merge:%s:%s", tenantID, entityType)
}

// LocalLocker is an in-process keyed mutex. Waiters give up when their context ends.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker creates an empty keyed mutex
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

// Lock blocks until key is free or ctx is done
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			done := make(chan struct{})
			l.locks[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
