package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRun_TableName(t *testing.T) {
	assert.Equal(t, "scan_runs", ScanRun{}.TableName())
}

func TestScanRun_Lifecycle(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := NewScanRun(uuid.New(), EntityTypeCustomer, ScanTriggerWorker, start)

	assert.Equal(t, ScanStatusRunning, run.Status)
	assert.Zero(t, run.Duration())

	run.Complete(3, 7, start.Add(2*time.Second))
	assert.Equal(t, ScanStatusCompleted, run.Status)
	assert.Equal(t, 3, run.GroupCount)
	assert.Equal(t, 7, run.MatchCount)
	assert.Equal(t, 2*time.Second, run.Duration())
}

func TestScanRun_Fail(t *testing.T) {
	start := time.Now()
	run := NewScanRun(uuid.New(), EntityTypeLead, ScanTriggerCLI, start)

	run.Fail(errors.New("connection reset"), start.Add(time.Second))
	assert.Equal(t, ScanStatusFailed, run.Status)
	assert.Equal(t, "connection reset", run.Error)
	require.NotNil(t, run.CompletedAt)
}

func TestIsValidScanStatus(t *testing.T) {
	for _, status := range ValidScanStatuses() {
		assert.True(t, IsValidScanStatus(status))
	}
	assert.False(t, IsValidScanStatus("uploaded"))
	assert.False(t, IsValidScanStatus(""))
}

func TestScanRun_Persist(t *testing.T) {
	db := setupCRMTestDB(t)

	run := &ScanRun{TenantID: uuid.New(), EntityType: EntityTypeLead, Trigger: ScanTriggerCLI, StartedAt: time.Now()}
	require.NoError(t, db.Create(run).Error)
	assert.NotEqual(t, uuid.Nil, run.ID)

	var loaded ScanRun
	require.NoError(t, db.First(&loaded, "id = ?", run.ID).Error)
	assert.Equal(t, ScanStatusRunning, loaded.Status)
	assert.Nil(t, loaded.CompletedAt)
}
