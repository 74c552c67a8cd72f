package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/storage"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/logger"
)

// NewReportsCommand creates the reports command group.
func NewReportsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List and prune saved scan reports",
	}

	cmd.AddCommand(newReportsListCommand(rootOpts))
	cmd.AddCommand(newReportsCleanupCommand(rootOpts))

	return cmd
}

func newReportsListCommand(rootOpts *RootOptions) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the saved reports of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			tenantID, err := parseTenant(tenant)
			if err != nil {
				return out.Fail("list rejected", err)
			}

			store, err := openReportStore(rootOpts, cmd)
			if err != nil {
				return err
			}

			listed, err := store.List(cmd.Context(), tenantID)
			if err != nil {
				return out.Fail("failed to list reports", err)
			}

			return out.Success(listed, func(w io.Writer) {
				if len(listed) == 0 {
					fmt.Fprintln(w, "no reports")
					return
				}
				for _, entityType := range domain.ValidEntityTypes() {
					for _, name := range listed[entityType] {
						fmt.Fprintf(w, "%-9s %s\n", entityType, name)
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func newReportsCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove reports older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			store, err := newReportStore(rootOpts, cmd, cfg)
			if err != nil {
				return err
			}

			if olderThan <= 0 {
				olderThan = cfg.Reports.Retention
			}
			removed, err := store.CleanupOld(cmd.Context(), olderThan)
			if err != nil {
				return out.Fail("cleanup failed", err)
			}

			return out.Success(map[string]int{"removed": removed}, func(w io.Writer) {
				fmt.Fprintf(w, "✓ removed %d report(s) older than %s\n", removed, olderThan)
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age cutoff (defaults to REPORTS_RETENTION)")

	return cmd
}

// openReportStore needs only the report settings, so no database connection is opened
func openReportStore(rootOpts *RootOptions, cmd *cobra.Command) (*storage.ReportStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return newReportStore(rootOpts, cmd, cfg)
}

func newReportStore(rootOpts *RootOptions, cmd *cobra.Command, cfg *config.Config) (*storage.ReportStore, error) {
	log := logger.InitializeWithWriter(cfg.Environment, firstNonEmpty(rootOpts.LogLevel, cfg.LogLevel), cmd.ErrOrStderr())
	store, err := storage.NewReportStore(&cfg.Reports, log)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open report store", err)
	}
	return store, nil
}
