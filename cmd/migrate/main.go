package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ilramdhan/scene-expr/config"
	"github.com/ilramdhan/scene-expr/pkg/database"
	"github.com/ilramdhan/scene-expr/pkg/logger"
)

var log = logger.Std()

func main() {
	godotenv.Load()

	upCmd := flag.NewFlagSet("up", flag.ExitOnError)
	upDir := upCmd.String("dir", "migrations", "Migrations directory")
	downCmd := flag.NewFlagSet("down", flag.ExitOnError)
	downDir := downCmd.String("dir", "migrations", "Migrations directory")
	downSteps := downCmd.Int("steps", 1, "Number of migrations to roll back")
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	statusDir := statusCmd.String("dir", "migrations", "Migrations directory")

	if len(os.Args) < 2 {
		fmt.Println("Usage: migrate <command>")
		fmt.Println("Commands: up, down, status")
		os.Exit(1)
	}

	cfg := config.Load()
	log = logger.Init(&cfg.Log)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Ensure migrations table exists
	ensureMigrationsTable(ctx, pool)

	switch os.Args[1] {
	case "up":
		upCmd.Parse(os.Args[2:])
		runMigrationsUp(ctx, pool, *upDir)
	case "down":
		downCmd.Parse(os.Args[2:])
		for i := 0; i < *downSteps; i++ {
			if !runMigrationsDown(ctx, pool, *downDir) {
				break
			}
		}
	case "status":
		statusCmd.Parse(os.Args[2:])
		showMigrationStatus(ctx, pool, *statusDir)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func ensureMigrationsTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Fatalf("Failed to create migrations table: %v", err)
	}
}

func runMigrationsUp(ctx context.Context, pool *pgxpool.Pool, dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		log.Fatalf("Failed to find migration files: %v", err)
	}
	sort.Strings(files)

	for _, file := range files {
		version := extractVersion(file)
		if isApplied(ctx, pool, version) {
			log.WithField("version", version).Debug("Skipping applied migration")
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", file, err)
		}

		log.WithField("version", version).Info("Applying migration")
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			log.Fatalf("Failed to apply %s: %v", file, err)
		}

		if _, err := pool.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			log.Fatalf("Failed to record migration %s: %v", version, err)
		}
		log.WithField("version", version).Info("Applied migration")
	}
}

// runMigrationsDown rolls back the latest applied migration and reports
// whether one was rolled back
func runMigrationsDown(ctx context.Context, pool *pgxpool.Pool, dir string) bool {
	files, err := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	if err != nil {
		log.Fatalf("Failed to find migration files: %v", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	for _, file := range files {
		version := extractVersion(file)
		if !isApplied(ctx, pool, version) {
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", file, err)
		}

		log.WithField("version", version).Info("Rolling back migration")
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			log.Fatalf("Failed to rollback %s: %v", file, err)
		}

		if _, err := pool.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", version); err != nil {
			log.Fatalf("Failed to remove migration record %s: %v", version, err)
		}
		log.WithField("version", version).Info("Rolled back migration")
		return true
	}

	log.Info("No migrations to rollback")
	return false
}

func showMigrationStatus(ctx context.Context, pool *pgxpool.Pool, dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		log.Fatalf("Failed to find migration files: %v", err)
	}
	sort.Strings(files)

	fmt.Println("Migration Status:")
	fmt.Println("=================")
	for _, file := range files {
		version := extractVersion(file)
		status := "PENDING"
		if isApplied(ctx, pool, version) {
			status = "APPLIED"
		}
		fmt.Printf("[%s] %s\n", status, version)
	}
}

func extractVersion(filename string) string {
	base := filepath.Base(filename)
	parts := strings.Split(base, "_")
	if len(parts) > 0 {
		return parts[0]
	}
	return base
}

func isApplied(ctx context.Context, pool *pgxpool.Pool, version string) bool {
	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = $1", version).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}
