package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

// NewPrintTableCommand creates the print-table command.
func NewPrintTableCommand(rootOpts *RootOptions) *cobra.Command {
	var tableID int64

	cmd := &cobra.Command{
		Use:   "print-table",
		Short: "Print a table as tab separated rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tableID <= 0 {
				return fmt.Errorf("--table-id is required")
			}

			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}

			tables := repositories.NewTableRepository()
			return a.withScope(cmd.Context(), func(ctx context.Context) error {
				view, err := tables.PrintTableByTableID(ctx, tableID)
				if err != nil {
					return err
				}
				return view.Render(cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().Int64Var(&tableID, "table-id", 0, "id of the table to print")
	return cmd
}
