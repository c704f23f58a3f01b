package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/database"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|check")
	flag.Parse()

	if err := run(*cmd); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations only apply to the postgres driver (DB_DRIVER=%s)", cfg.Database.Driver)
	}

	logger := config.NewLogger(cfg.Logger).With().Str("component", "migrate").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	switch cmd {
	case "up":
		return database.Migrate(ctx, pool, logger)

	case "down":
		return database.Rollback(ctx, pool, logger)

	case "status":
		status, err := database.MigrationStatus(ctx, pool)
		if err != nil {
			return err
		}
		for _, s := range status {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-8s %-30s %s\n", s.State, s.Source.Path, applied)
		}
		return nil

	case "check":
		var dbName string
		if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		fmt.Printf("Successfully connected to database: %s\n", dbName)
		return nil

	default:
		return fmt.Errorf("unknown -cmd value: %s", cmd)
	}
}
