package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	Tenant string
	Type   string
}

// CheckResult reports which intake records already exist in the tenant
type CheckResult struct {
	File       string        `json:"file"`
	Records    int           `json:"records"`
	Duplicates int           `json:"duplicates"`
	RowErrors  []string      `json:"row_errors,omitempty"`
	Checks     []RecordCheck `json:"checks"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check every record of an intake file against the stored records",
		Long: `Reads customers or leads from a CSV, XLSX, JSON or JSONL file and reports,
for each one, the stored records it would duplicate. Nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			tenantID, err := parseTenant(opts.Tenant)
			if err != nil {
				return out.Fail("check rejected", err)
			}
			entityType, err := parseEntityType(opts.Type)
			if err != nil {
				return out.Fail("check rejected", err)
			}

			a, err := loadApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sheet, err := a.Parsers.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return out.Fail("failed to read intake file", err)
			}
			batch, err := newIntakeBatch(sheet, tenantID, entityType)
			if err != nil {
				return out.Fail("check rejected", err)
			}

			checks, err := batch.check(cmd.Context(), a.Detector, tenantID)
			if err != nil {
				return out.Fail("check failed", err)
			}

			result := newCheckResult(args[0], batch, checks)
			return out.Success(result, func(w io.Writer) { renderCheck(w, result) })
		},
	}

	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&opts.Type, "type", "customers", "record type in the file (customers|leads)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func newCheckResult(file string, batch *intakeBatch, checks []RecordCheck) *CheckResult {
	result := &CheckResult{File: file, Records: len(checks), Checks: checks}
	for _, c := range checks {
		if len(c.Matches) > 0 {
			result.Duplicates++
		}
	}
	for _, rowErr := range batch.rowErrors {
		result.RowErrors = append(result.RowErrors, rowErr.Error())
	}
	return result
}

func renderCheck(w io.Writer, result *CheckResult) {
	fmt.Fprintf(w, "%s: %d record(s), %d possible duplicate(s)\n", result.File, result.Records, result.Duplicates)
	for _, c := range result.Checks {
		if len(c.Matches) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n#%d %s\n", c.Index, c.Label)
		for _, match := range c.Matches {
			fmt.Fprintf(w, "  %s  %3d%%  %-30s %v\n", match.RecordID, match.Confidence, match.RuleName, match.MatchedFields)
		}
	}
	for _, rowErr := range result.RowErrors {
		fmt.Fprintf(w, "skipped %s\n", rowErr)
	}
}
