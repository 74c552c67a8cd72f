package merge

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

func TestLockKey(t *testing.T) {
	tenant := uuid.MustParse("7b0c1c53-8d6e-4e4c-9d4f-0a4b3f1e2d11")
	assert.Equal(t, "merge:7b0c1c53-8d6e-4e4c-9d4f-0a4b3f1e2d11:Customer", LockKey(tenant, domain.EntityTypeCustomer))
}

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "merge:t:Customer")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	locker := NewLocalLocker()

	releaseA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := locker.Lock(context.Background(), "b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalLocker_WaiterHonoursContext(t *testing.T) {
	locker := NewLocalLocker()

	release, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	again, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}
