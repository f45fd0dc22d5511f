package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/johnwards/crmimport/internal/config"
	"github.com/johnwards/crmimport/internal/database"
	"github.com/johnwards/crmimport/internal/logging"
	"github.com/johnwards/crmimport/internal/seed"
	"github.com/johnwards/crmimport/internal/store"
)

// app carries what every subcommand needs once the root command has
// loaded the configuration.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	dbPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "crmimport",
		Short:         "Import Sugar CRM CSV exports into the CRM database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			if a.dbPath != "" {
				cfg.DBPath = a.dbPath
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			slog.SetDefault(a.logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides CRM_DB)")

	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newTenantCmd(a))
	cmd.AddCommand(newUserCmd(a))
	cmd.AddCommand(newRunsCmd(a))
	return cmd
}

// Execute runs the CLI and exits with the code attached to the error.
// SIGINT and SIGTERM cancel the command's context; an import stops before
// its next row.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

// openStore opens the configured database and brings its schema and seed
// data up to date. The returned func closes the database.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return nil, nil, withCode(exitDB, fmt.Errorf("open database: %w", err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, withCode(exitDB, fmt.Errorf("run migrations: %w", err))
	}
	if err := seed.Seed(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, withCode(exitDB, fmt.Errorf("seed data: %w", err))
	}
	return store.New(db), func() { _ = db.Close() }, nil
}

// usageArgs attaches the usage exit code to positional argument errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withCode(exitUsage, check(cmd, args))
	}
}
