package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rhuss/coursehub/pkg/config"
	"github.com/rhuss/coursehub/pkg/storage/postgres"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the configured PostgreSQL database.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if cfg.Storage.Type != "postgres" {
		return errors.New("migrate requires storage.type \"postgres\"")
	}

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	store, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Storage.Postgres.DSN,
		MaxConns: 1,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	cmd.Println("Running migrations...")
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
