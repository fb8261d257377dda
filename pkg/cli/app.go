package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/config"
	"github.com/larasormani21/db-SemTUI/pkg/database"
	"github.com/larasormani21/db-SemTUI/pkg/logging"
)

// app is what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
}

// newApp loads configuration and builds the logger. The database is opened
// separately by connect so that commands failing early do not dial.
func newApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, opts.Verbose)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) connect(ctx context.Context) error {
	dsn := a.cfg.Database.ConnectionString()
	a.logger.Debug("Connecting to database", zap.String("dsn", logging.SanitizeConnectionString(dsn)))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            dsn,
		MaxConnections: a.cfg.Database.MaxConnections,
		MinConnections: a.cfg.Database.MinConnections,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %s", logging.SanitizeConnectionString(dsn), logging.SanitizeError(err))
	}
	a.db = db
	return nil
}

// close releases the pool and flushes the logger.
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

// withScope runs fn with a database scope bound to ctx.
func (a *app) withScope(ctx context.Context, fn func(ctx context.Context) error) error {
	scoped, release, err := a.db.WithScope(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(scoped)
}
