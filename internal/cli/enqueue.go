package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/queue"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/logger"
)

// EnqueueResult identifies a queued task
type EnqueueResult struct {
	TaskID   string `json:"task_id"`
	TaskType string `json:"task_type"`
	Queue    string `json:"queue"`
}

type taskEnqueuer interface {
	EnqueueScan(ctx context.Context, payload queue.ScanPayload) (*asynq.TaskInfo, error)
	EnqueueMerge(ctx context.Context, payload queue.MergePayload) (*asynq.TaskInfo, error)
}

// NewEnqueueCommand creates the enqueue command group.
func NewEnqueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue scans and merges for the worker",
	}

	cmd.AddCommand(newEnqueueScanCommand(rootOpts))
	cmd.AddCommand(newEnqueueMergeCommand(rootOpts))

	return cmd
}

func newEnqueueScanCommand(rootOpts *RootOptions) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "scan <customers|leads>",
		Short: "Queue a batch duplicate scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			tenantID, err := parseTenant(tenant)
			if err != nil {
				return out.Fail("enqueue rejected", err)
			}
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return out.Fail("enqueue rejected", err)
			}

			return withQueueClient(rootOpts, cmd, out, func(client taskEnqueuer) (*asynq.TaskInfo, error) {
				return client.EnqueueScan(cmd.Context(), queue.ScanPayload{TenantID: tenantID, EntityType: entityType})
			})
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func newEnqueueMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Queue a merge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			req, err := opts.parse()
			if err != nil {
				return out.Fail("enqueue rejected", err)
			}

			return withQueueClient(rootOpts, cmd, out, func(client taskEnqueuer) (*asynq.TaskInfo, error) {
				return client.EnqueueMerge(cmd.Context(), queue.MergePayload{
					TenantID:     req.TenantID,
					EntityType:   req.EntityType,
					MasterID:     req.MasterID,
					DuplicateIDs: req.DuplicateIDs,
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&opts.Type, "type", "customers", "record type (customers|leads)")
	cmd.Flags().StringVar(&opts.Master, "master", "", "id of the record to keep (required)")
	cmd.Flags().StringVar(&opts.Duplicates, "duplicates", "", "comma separated ids to merge into the master")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("master")

	return cmd
}

// withQueueClient only needs the queue settings, so no database connection is opened
func withQueueClient(rootOpts *RootOptions, cmd *cobra.Command, out *OutputFormatter, enqueue func(taskEnqueuer) (*asynq.TaskInfo, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	log := logger.InitializeWithWriter(cfg.Environment, firstNonEmpty(rootOpts.LogLevel, cfg.LogLevel), cmd.ErrOrStderr())

	client := queue.NewAsynqClient(&cfg.Queue, log)
	defer client.Close()

	return runEnqueue(out, client, enqueue)
}

func runEnqueue(out *OutputFormatter, client taskEnqueuer, enqueue func(taskEnqueuer) (*asynq.TaskInfo, error)) error {
	info, err := enqueue(client)
	if err != nil {
		return out.Fail("enqueue failed", err)
	}

	result := &EnqueueResult{TaskID: info.ID, TaskType: info.Type, Queue: info.Queue}
	return out.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ queued %s task %s on %s\n", result.TaskType, result.TaskID, result.Queue)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
