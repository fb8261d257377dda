package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/logging"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			if path == "" {
				path = a.cfg.MigrationsPath
			}
			sqlDB, err := database.OpenForMigrations(a.cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := database.RunMigrations(sqlDB, path, a.logger); err != nil {
				a.logger.Error("Migration failed", zap.String("error", logging.SanitizeError(err)))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "migrations directory (default from config)")
	return cmd
}
