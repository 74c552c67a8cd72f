package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/core/services/deduplication"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/storage"
	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	Tenant string
	Report string // "", "json" or "xlsx"
}

// ScanResult is the outcome of a batch scan
type ScanResult struct {
	RunID      *uuid.UUID                     `json:"run_id,omitempty"`
	TenantID   uuid.UUID                      `json:"tenant_id"`
	EntityType domain.EntityType              `json:"entity_type"`
	GroupCount int                            `json:"group_count"`
	Groups     []deduplication.DuplicateGroup `json:"groups"`
	ReportPath string                         `json:"report_path,omitempty"`
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <customers|leads>",
		Short: "Find duplicate groups among all active records of a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			tenantID, err := parseTenant(opts.Tenant)
			if err != nil {
				return out.Fail("scan rejected", err)
			}
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return out.Fail("scan rejected", err)
			}
			if opts.Report != "" && opts.Report != storage.FormatJSON && opts.Report != storage.FormatXLSX {
				return out.Fail("scan rejected", apperrors.BadRequest(fmt.Sprintf("unsupported report format %q", opts.Report)))
			}

			a, err := loadApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := runScan(cmd.Context(), a.Scanner, tenantID, entityType)
			if err != nil {
				return out.Fail("scan failed", err)
			}

			if opts.Report != "" {
				report := storage.NewScanReport(tenantID, entityType, result.Groups)
				meta, err := a.Reports.Save(cmd.Context(), report, opts.Report)
				if err != nil {
					return out.Fail("failed to save report", err)
				}
				result.ReportPath = meta.StoredPath

				if result.RunID != nil {
					if err := a.ScanRuns.SetReportPath(cmd.Context(), tenantID, *result.RunID, meta.StoredPath); err != nil {
						a.Logger.Warn("failed to link report to scan run", slog.Any("error", err))
					}
				}
			}

			return out.Success(result, func(w io.Writer) { renderScan(w, result) })
		},
	}

	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&opts.Report, "report", "", "also save a report (json|xlsx)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runScan(ctx context.Context, scanner *deduplication.Scanner, tenantID uuid.UUID, entityType domain.EntityType) (*ScanResult, error) {
	groups, run, err := scanner.Scan(ctx, tenantID, entityType, domain.ScanTriggerCLI)
	if err != nil {
		return nil, err
	}

	if groups == nil {
		groups = []deduplication.DuplicateGroup{}
	}
	result := &ScanResult{
		TenantID:   tenantID,
		EntityType: entityType,
		GroupCount: len(groups),
		Groups:     groups,
	}
	if run != nil {
		result.RunID = &run.ID
	}
	return result, nil
}

func renderScan(w io.Writer, result *ScanResult) {
	if result.GroupCount == 0 {
		fmt.Fprintf(w, "✓ no duplicate %s records found\n", result.EntityType)
	} else {
		fmt.Fprintf(w, "Found %d duplicate group(s) among %s records\n", result.GroupCount, result.EntityType)
		for _, group := range result.Groups {
			renderGroup(w, group)
		}
	}
	if result.ReportPath != "" {
		fmt.Fprintf(w, "Report saved to %s\n", result.ReportPath)
	}
}

func renderGroup(w io.Writer, group deduplication.DuplicateGroup) {
	master := "(new record)"
	if group.MasterCandidateID != uuid.Nil {
		master = group.MasterCandidateID.String()
	}
	fmt.Fprintf(w, "\n%s %s\n", group.EntityType, master)
	for _, match := range group.Matches {
		fmt.Fprintf(w, "  %s  %3d%%  %-30s %v\n", match.RecordID, match.Confidence, match.RuleName, match.MatchedFields)
	}
}
