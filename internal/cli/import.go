package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alejandroruanova/crm-resolution-service/internal/core/domain"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	Tenant         string
	Type           string
	SkipDuplicates bool
}

// ImportResult summarizes an import
type ImportResult struct {
	File      string   `json:"file"`
	Read      int      `json:"read"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	RowErrors []string `json:"row_errors,omitempty"`
}

type customerCreator interface {
	Create(ctx context.Context, customers []domain.Customer) error
}

type leadCreator interface {
	Create(ctx context.Context, leads []domain.Lead) error
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load customers or leads from an intake file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			tenantID, err := parseTenant(opts.Tenant)
			if err != nil {
				return out.Fail("import rejected", err)
			}
			entityType, err := parseEntityType(opts.Type)
			if err != nil {
				return out.Fail("import rejected", err)
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
				return out.Fail("import rejected", err)
			}
			read := batch.size()

			if opts.SkipDuplicates {
				checks, err := batch.check(cmd.Context(), a.Detector, tenantID)
				if err != nil {
					return out.Fail("duplicate check failed", err)
				}
				batch = batch.withoutDuplicates(checks)
			}

			if err := importBatch(cmd.Context(), batch, a.Customers, a.Leads); err != nil {
				return out.Fail("import failed", err)
			}

			result := &ImportResult{
				File:     args[0],
				Read:     read,
				Imported: batch.size(),
				Skipped:  read - batch.size(),
			}
			for _, rowErr := range batch.rowErrors {
				result.RowErrors = append(result.RowErrors, rowErr.Error())
			}

			return out.Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "✓ imported %d of %d %s record(s) from %s\n", result.Imported, result.Read, entityType, result.File)
				for _, rowErr := range result.RowErrors {
					fmt.Fprintf(w, "skipped %s\n", rowErr)
				}
			})
		},
	}

	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&opts.Type, "type", "customers", "record type in the file (customers|leads)")
	cmd.Flags().BoolVar(&opts.SkipDuplicates, "skip-duplicates", false, "leave out records that match a stored record")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func importBatch(ctx context.Context, batch *intakeBatch, customers customerCreator, leads leadCreator) error {
	if len(batch.customers) > 0 {
		if err := customers.Create(ctx, batch.customers); err != nil {
			return err
		}
	}
	if len(batch.leads) > 0 {
		if err := leads.Create(ctx, batch.leads); err != nil {
			return err
		}
	}
	return nil
}
