package deduplication

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// mockRecorder keeps copies of the runs it was given
type mockRecorder struct {
	started  []domain.ScanRun
	finished []domain.ScanRun
	startErr error
}

func (m *mockRecorder) StartRun(ctx context.Context, run *domain.ScanRun) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, *run)
	return nil
}

func (m *mockRecorder) FinishRun(ctx context.Context, run *domain.ScanRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.finished = append(m.finished, *run)
	return nil
}

func duplicateCustomers(tenant uuid.UUID) *mockRepository {
	return &mockRepository{customers: []domain.Customer{
		{ID: uuid.New(), TenantID: tenant, Name: "Acme", Email: "a@x.com"},
		{ID: uuid.New(), TenantID: tenant, Name: "Acme Inc", Email: "a@x.com"},
	}}
}

func TestScanner_RecordsCompletedRun(t *testing.T) {
	tenant := uuid.New()
	recorder := &mockRecorder{}
	scanner := NewScanner(newTestService(duplicateCustomers(tenant)), recorder, nil)

	groups, run, err := scanner.Scan(context.Background(), tenant, domain.EntityTypeCustomer, domain.ScanTriggerWorker)
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	require.NotNil(t, run)
	require.Len(t, recorder.started, 1)
	assert.Equal(t, domain.ScanStatusRunning, recorder.started[0].Status)

	require.Len(t, recorder.finished, 1)
	finished := recorder.finished[0]
	assert.Equal(t, run.ID, finished.ID)
	assert.Equal(t, domain.ScanStatusCompleted, finished.Status)
	assert.Equal(t, 2, finished.GroupCount)
	assert.Equal(t, 2, finished.MatchCount)
	assert.Equal(t, domain.ScanTriggerWorker, finished.Trigger)
}

func TestScanner_RecordsFailedRun(t *testing.T) {
	recorder := &mockRecorder{}
	scanner := NewScanner(newTestService(&mockRepository{err: errors.New("connection refused")}), recorder, nil)

	groups, run, err := scanner.Scan(context.Background(), uuid.New(), domain.EntityTypeLead, domain.ScanTriggerCLI)
	require.Error(t, err)
	assert.Nil(t, groups)
	require.NotNil(t, run)

	require.Len(t, recorder.finished, 1)
	assert.Equal(t, domain.ScanStatusFailed, recorder.finished[0].Status)
	assert.Contains(t, recorder.finished[0].Error, "connection refused")
}

func TestScanner_CancelledScanStillRecorded(t *testing.T) {
	recorder := &mockRecorder{}
	scanner := NewScanner(newTestService(&mockRepository{}), recorder, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := scanner.Scan(ctx, uuid.New(), domain.EntityTypeCustomer, domain.ScanTriggerCLI)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCancelled))
	require.Len(t, recorder.finished, 1)
	assert.Equal(t, domain.ScanStatusFailed, recorder.finished[0].Status)
}

func TestScanner_StartFailureDoesNotStopScan(t *testing.T) {
	tenant := uuid.New()
	recorder := &mockRecorder{startErr: errors.New("table missing")}
	scanner := NewScanner(newTestService(duplicateCustomers(tenant)), recorder, nil)

	groups, run, err := scanner.Scan(context.Background(), tenant, domain.EntityTypeCustomer, domain.ScanTriggerCLI)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Nil(t, run)
	assert.Empty(t, recorder.finished)
}

func TestScanner_WithoutRecorder(t *testing.T) {
	scanner := NewScanner(newTestService(&mockRepository{}), nil, nil)

	groups, run, err := scanner.Scan(context.Background(), uuid.New(), domain.EntityTypeLead, domain.ScanTriggerCLI)
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Nil(t, run)
}

func TestScanner_UnknownEntityType(t *testing.T) {
	recorder := &mockRecorder{}
	scanner := NewScanner(newTestService(&mockRepository{}), recorder, nil)
	scanner.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, run, err := scanner.Scan(context.Background(), uuid.New(), domain.EntityType("Ticket"), domain.ScanTriggerCLI)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBadRequest))
	require.NotNil(t, run)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), run.StartedAt)
}
