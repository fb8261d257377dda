package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/spf13/cobra"

	"github.com/larasormani21/db-SemTUI/pkg/importer"
	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

type importOptions struct {
	tableID int64
	atomic  bool
}

// NewImportCommand creates the import command and its table and extension subcommands.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import JSON documents into a table",
	}

	cmd.AddCommand(newImportSubcommand(rootOpts, "table", "Import a table document ({columns, rows})",
		func(im *importer.Importer, ctx context.Context, tableID int64, r io.Reader, opts importer.Options) (*importer.Result, error) {
			return im.ImportTable(ctx, tableID, r, opts)
		}))
	cmd.AddCommand(newImportSubcommand(rootOpts, "extension", "Import an extension document ({meta, rows})",
		func(im *importer.Importer, ctx context.Context, tableID int64, r io.Reader, opts importer.Options) (*importer.Result, error) {
			return im.ImportExtension(ctx, tableID, r, opts)
		}))
	return cmd
}

type importFunc func(im *importer.Importer, ctx context.Context, tableID int64, r io.Reader, opts importer.Options) (*importer.Result, error)

func newImportSubcommand(rootOpts *RootOptions, name, short string, run importFunc) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   name + " <file>",
		Short: short,
		Long: short + `.

Use "-" as file to read standard input. Without --atomic the cells are
committed batch by batch; with it the whole document is one transaction.
The import.atomic config value sets the default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.tableID <= 0 {
				return fmt.Errorf("--table-id is required")
			}

			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			in, closeInput, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeInput()

			atomic := a.cfg.Import.Atomic
			if cmd.Flags().Changed("atomic") {
				atomic = opts.atomic
			}

			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			im := importer.New(
				repositories.NewTableRepository(),
				repositories.NewColumnRepository(),
				repositories.NewCellRepository(),
				repositories.NewExtensionRepository(),
				a.cfg.Import.BatchSize,
				a.logger,
			)

			var res *importer.Result
			err = a.withScope(cmd.Context(), func(ctx context.Context) error {
				var err error
				res, err = run(im, ctx, opts.tableID, in, importer.Options{Atomic: atomic})
				return err
			})
			if err != nil {
				return err
			}

			cmd.PrintErrln(summarize(res))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().Int64Var(&opts.tableID, "table-id", 0, "id of the table receiving the document")
	cmd.Flags().BoolVar(&opts.atomic, "atomic", false, "import in a single transaction")
	return cmd
}

// summarize renders a result as one line, e.g. "2 columns, 1 cell, 0 skipped cells".
func summarize(res *importer.Result) string {
	parts := []string{
		count(res.Columns, "column"),
		count(res.Cells, "cell"),
		count(res.SkippedCells, "skipped cell"),
	}
	if res.Reconciled > 0 {
		parts = append(parts, fmt.Sprintf("%d reconciled", res.Reconciled))
	}
	if res.ExtensionValues > 0 {
		parts = append(parts, count(res.ExtensionValues, "extension value"))
	}
	return "Imported " + strings.Join(parts, ", ")
}

func count(n int, noun string) string {
	if n != 1 {
		noun = inflection.Plural(noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
