package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/handlers"
	"github.com/larasormani21/db-SemTUI/pkg/middleware"
	"github.com/larasormani21/db-SemTUI/pkg/repositories"
	"github.com/larasormani21/db-SemTUI/pkg/services"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.connect(ctx); err != nil {
				return err
			}
			return a.serve(ctx)
		},
	}
}

// newMux registers every API route.
func (a *app) newMux() *http.ServeMux {
	scope := handlers.ScopeMiddleware(database.WithScopeContext(a.db, a.logger))

	users := repositories.NewUserRepository()
	datasets := repositories.NewDatasetRepository()
	tables := repositories.NewTableRepository()
	columns := repositories.NewColumnRepository()
	cells := repositories.NewCellRepository()

	mux := http.NewServeMux()
	handlers.NewHealthHandler(a.cfg, a.logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(services.NewUserService(users, a.logger), a.logger).RegisterRoutes(mux, scope)
	handlers.NewDatasetsHandler(datasets, tables, a.logger).RegisterRoutes(mux, scope)
	handlers.NewTablesHandler(tables, columns, a.logger).RegisterRoutes(mux, scope)
	handlers.NewColumnsHandler(columns, cells, a.logger).RegisterRoutes(mux, scope)
	handlers.NewCellsHandler(cells, a.logger).RegisterRoutes(mux, scope)
	return mux
}

func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.BindAddr, a.cfg.Port),
		Handler:           middleware.RequestLogger(a.logger)(a.newMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting semtui-db",
			zap.String("addr", srv.Addr),
			zap.String("version", a.cfg.Version),
			zap.String("env", a.cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
