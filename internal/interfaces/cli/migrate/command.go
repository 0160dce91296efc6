// Package migrate implements the database migration subcommands.
package migrate

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/meterd-io/meterd/internal/infrastructure/config"
	"github.com/meterd-io/meterd/internal/infrastructure/database"
	"github.com/meterd-io/meterd/internal/infrastructure/migration"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

var (
	scriptsDir string
	name       string
	steps      int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations: apply, roll back, inspect status and scaffold new migration files.`,
	}

	cmd.PersistentFlags().StringVar(&scriptsDir, "scripts", "./migrations", "Path to the migration scripts directory")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new migration",
		RunE:  runCreate,
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func initEnv() (*gorm.DB, *migration.GooseMigrator, logger.Interface, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	gdb, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	scriptsPath, err := filepath.Abs(scriptsDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to resolve scripts path: %w", err)
	}

	return gdb, migration.NewGooseMigrator(scriptsPath, log), log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	gdb, migrator, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close(gdb)

	if err := migrator.Up(gdb); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	gdb, migrator, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close(gdb)

	if err := migrator.Down(gdb, steps); err != nil {
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully", "steps", steps)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	gdb, migrator, _, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close(gdb)

	version, err := migrator.Version(gdb)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("\nMigration Status:\n")
	fmt.Printf("  Current Version: %d\n", version)

	if err := migrator.Status(gdb); err != nil {
		return fmt.Errorf("failed to get detailed status: %w", err)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	_, migrator, log, err := initEnv()
	if err != nil {
		return err
	}

	if err := migrator.Create(name); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	log.Infow("migration created successfully", "name", name)
	return nil
}
