package queue

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// Task types
const (
	TaskTypeDedupScan  = "dedup:scan"
	TaskTypeDedupMerge = "dedup:merge"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ScanPayload requests a full duplicate scan of one entity type within a tenant
type ScanPayload struct {
	TenantID   uuid.UUID         `json:"tenant_id" validate:"required"`
	EntityType domain.EntityType `json:"entity_type" validate:"required,oneof=Customer Lead"`
}

// MergePayload requests a merge of DuplicateIDs into MasterID
type MergePayload struct {
	TenantID     uuid.UUID         `json:"tenant_id" validate:"required"`
	EntityType   domain.EntityType `json:"entity_type" validate:"required,oneof=Customer Lead"`
	MasterID     uuid.UUID         `json:"master_id" validate:"required"`
	DuplicateIDs []uuid.UUID       `json:"duplicate_ids" validate:"required,min=1,dive,required"`
}

// NewScanTask validates the payload and builds a dedup:scan task
func NewScanTask(payload ScanPayload) (*asynq.Task, error) {
	return newTask(TaskTypeDedupScan, payload)
}

// NewMergeTask validates the payload and builds a dedup:merge task
func NewMergeTask(payload MergePayload) (*asynq.Task, error) {
	return newTask(TaskTypeDedupMerge, payload)
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	if err := validate.Struct(payload); err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid %s payload: %v", taskType, err))
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	return asynq.NewTask(taskType, data), nil
}

// decodePayload unmarshals and validates a task payload. Malformed payloads can never
// succeed, so they are marked to skip retries.
func decodePayload(task *asynq.Task, dst any) error {
	if err := json.Unmarshal(task.Payload(), dst); err != nil {
		return fmt.Errorf("malformed %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return nil
}
