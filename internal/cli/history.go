package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var tenant string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the latest duplicate scans of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			tenantID, err := parseTenant(tenant)
			if err != nil {
				return out.Fail("history rejected", err)
			}

			a, err := loadApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.ScanRuns.ListRecent(cmd.Context(), tenantID, limit)
			if err != nil {
				return out.Fail("failed to list scans", err)
			}

			return out.Success(runs, func(w io.Writer) {
				if len(runs) == 0 {
					fmt.Fprintln(w, "no scans recorded")
					return
				}
				for _, run := range runs {
					fmt.Fprintf(w, "%s  %-9s %-8s %-9s groups=%d matches=%d duration=%s\n",
						run.StartedAt.Format("2006-01-02 15:04:05"), run.EntityType, run.Trigger, run.Status,
						run.GroupCount, run.MatchCount, run.Duration())
					if run.Error != "" {
						fmt.Fprintf(w, "  error: %s\n", run.Error)
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of scans to show")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}
