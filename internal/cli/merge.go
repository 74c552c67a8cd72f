package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/merge"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	Tenant     string
	Type       string
	Master     string
	Duplicates string
}

// mergeRequest is a parsed merge command line
type mergeRequest struct {
	TenantID     uuid.UUID
	EntityType   domain.EntityType
	MasterID     uuid.UUID
	DuplicateIDs []uuid.UUID
}

func (o *MergeOptions) parse() (*mergeRequest, error) {
	tenantID, err := parseTenant(o.Tenant)
	if err != nil {
		return nil, err
	}
	entityType, err := parseEntityType(o.Type)
	if err != nil {
		return nil, err
	}
	masterID, err := uuid.Parse(o.Master)
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid master id %q", o.Master))
	}
	duplicateIDs, err := parseIDList(o.Duplicates)
	if err != nil {
		return nil, err
	}
	return &mergeRequest{
		TenantID:     tenantID,
		EntityType:   entityType,
		MasterID:     masterID,
		DuplicateIDs: duplicateIDs,
	}, nil
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge duplicate records into a master record",
		Long: `Repoints every dependent record of the duplicates to the master, marks the
duplicates deleted and records an audit entry per duplicate, all in one transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			req, err := opts.parse()
			if err != nil {
				return out.Fail("merge rejected", err)
			}

			a, err := loadApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := runMerge(cmd.Context(), a.Merger, req)
			if err != nil {
				return out.Fail("merge failed", err)
			}

			return out.Success(result, func(w io.Writer) { renderMerge(w, result) })
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

func runMerge(ctx context.Context, executor merge.Executor, req *mergeRequest) (*merge.MergeResult, error) {
	switch req.EntityType {
	case domain.EntityTypeCustomer:
		return executor.MergeCustomers(ctx, req.TenantID, req.MasterID, req.DuplicateIDs)
	case domain.EntityTypeLead:
		return executor.MergeLeads(ctx, req.TenantID, req.MasterID, req.DuplicateIDs)
	}
	return nil, apperrors.BadRequest(fmt.Sprintf("unsupported entity type %q", req.EntityType))
}

func renderMerge(w io.Writer, result *merge.MergeResult) {
	fmt.Fprintf(w, "✓ %s\n", result.Message)
	for _, name := range slices.Sorted(maps.Keys(result.Reassigned)) {
		fmt.Fprintf(w, "  %-14s %d reassigned\n", name, result.Reassigned[name])
	}
}
