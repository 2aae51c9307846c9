package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/carbiooai/carbioo-api/config"
	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/pkg/migrations"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger)

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := migrate(logger); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}
		return

	case "purge-expired":
		if err := purgeExpired(logger, args[1:]); err != nil {
			logger.Error("Purge of expired verification tokens failed", "error", err.Error())
			os.Exit(1)
		}
		return

	case "generate-domain", "gendomain", "gen-domain":
		GenerateDomain()
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// migrate refuses to touch the database unless every version in
// MIGRATIONS_DIR has both an up and a down file.
func migrate(logger *log.Logger) error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return err
	}

	versions, err := migrations.Check(dbConfig.MigrationsDir)
	if err != nil {
		return err
	}
	logger.Info("Migration files checked", "dir", dbConfig.MigrationsDir, "latest", versions[len(versions)-1])

	db, err := config.NewDatabase(logger, dbConfig)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer config.CloseDatabase(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql handle for migration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := migrations.Up(ctx, sqlDB, migrations.Config{Dir: dbConfig.MigrationsDir, Logger: logger}); err != nil {
		return err
	}

	logger.Info("Database migrations completed")
	return nil
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate          Run database migrations and exit")
	fmt.Println("  purge-expired    Clear verification tokens that expired more than --older-than ago (default 720h)")
	fmt.Println("  generate-domain  Interactively scaffolds a new domain/module (repository, service, controller, routes)")
}
