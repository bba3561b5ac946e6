package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pocketly/internal/platform/config"
	"pocketly/internal/platform/database"
	"pocketly/internal/platform/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the subscriber store schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withDB(func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg config.Server) error {
				return database.Migrate(ctx, db, logger.New(cfg.LogLevel))
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withDB(func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg config.Server) error {
				return database.Rollback(ctx, db, logger.New(cfg.LogLevel))
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: withDB(func(ctx context.Context, cmd *cobra.Command, db *sql.DB, _ config.Server) error {
				v, err := database.Version(ctx, db)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}),
		},
	)
	return root
}

type dbFunc func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg config.Server) error

func withDB(fn dbFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		if cfg.Store.Driver == config.DriverMemory || !cfg.Store.Configured() {
			return fmt.Errorf("SUBSCRIBER_STORE_URL and SUBSCRIBER_STORE_KEY must be set")
		}
		ctx := cmd.Context()
		db, err := database.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(ctx, cmd, db, cfg)
	}
}
