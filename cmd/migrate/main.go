// Command migrate applies or rolls back the goose schema migrations that
// back internal/store's Postgres-backed ObjectStore and AuthSession.
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/irrdcore/rpslvalidate/internal/config"
	"github.com/irrdcore/rpslvalidate/pkg/logger"
)

const migrationsDir = "migrations"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect rpslvalidate schema migrations",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(
		upCommand(&configPath),
		downCommand(&configPath),
		statusCommand(&configPath),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func upCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := openMigrationDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			log.Info("starting database migrations")
			if err := goose.Up(db, migrationsDir); err != nil {
				log.Error("migration up failed", "error", err)
				return fmt.Errorf("migrate up: %w", err)
			}
			log.Info("database migrations completed")
			return nil
		},
	}
}

func downCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the given number of migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := int64(1)
			if len(args) == 1 {
				parsed, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("migrate down: invalid step count %q: %w", args[0], err)
				}
				steps = parsed
			}

			db, log, err := openMigrationDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			current, err := goose.GetDBVersion(db)
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}

			log.Info("rolling back database migrations", "steps", steps)
			if err := goose.DownTo(db, migrationsDir, current-steps); err != nil {
				log.Error("migration down failed", "error", err)
				return fmt.Errorf("migrate down: %w", err)
			}
			log.Info("database migration rollback completed", "steps", steps)
			return nil
		},
	}
}

func statusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the applied/pending migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := openMigrationDB(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := goose.Status(db, migrationsDir); err != nil {
				log.Error("migration status failed", "error", err)
				return fmt.Errorf("migrate status: %w", err)
			}
			return nil
		},
	}
}

func openMigrationDB(configPath string) (*sql.DB, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewLogger(logger.Config(cfg.Log))

	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return db, log, nil
}
