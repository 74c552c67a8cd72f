package queue

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

func TestNewScanTask(t *testing.T) {
	tenant := uuid.New()

	task, err := NewScanTask(ScanPayload{TenantID: tenant, EntityType: domain.EntityTypeLead})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeDedupScan, task.Type())

	var decoded ScanPayload
	require.NoError(t, decodePayload(task, &decoded))
	assert.Equal(t, tenant, decoded.TenantID)
	assert.Equal(t, domain.EntityTypeLead, decoded.EntityType)
}

func TestNewScanTask_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload ScanPayload
	}{
		{"missing tenant", ScanPayload{EntityType: domain.EntityTypeCustomer}},
		{"unknown entity type", ScanPayload{TenantID: uuid.New(), EntityType: "Contact"}},
		{"missing entity type", ScanPayload{TenantID: uuid.New()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScanTask(tt.payload)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBadRequest))
		})
	}
}

func TestNewMergeTask_Validation(t *testing.T) {
	valid := MergePayload{
		TenantID:     uuid.New(),
		EntityType:   domain.EntityTypeCustomer,
		MasterID:     uuid.New(),
		DuplicateIDs: []uuid.UUID{uuid.New()},
	}

	task, err := NewMergeTask(valid)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeDedupMerge, task.Type())

	noDuplicates := valid
	noDuplicates.DuplicateIDs = nil
	_, err = NewMergeTask(noDuplicates)
	assert.Error(t, err)

	nilDuplicate := valid
	nilDuplicate.DuplicateIDs = []uuid.UUID{uuid.Nil}
	_, err = NewMergeTask(nilDuplicate)
	assert.Error(t, err)

	noMaster := valid
	noMaster.MasterID = uuid.Nil
	_, err = NewMergeTask(noMaster)
	assert.Error(t, err)
}

func TestDecodePayload_SkipsRetryOnGarbage(t *testing.T) {
	var payload ScanPayload

	err := decodePayload(asynq.NewTask(TaskTypeDedupScan, []byte("{not json")), &payload)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	data, _ := json.Marshal(map[string]string{"entity_type": "Customer"})
	err = decodePayload(asynq.NewTask(TaskTypeDedupScan, data), &payload)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
