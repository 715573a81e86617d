package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"notes-upload/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// RunMigrations applies every pending migration. A nil database is a no-op
// so the in-memory dev mode can share the bootstrap path.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "up")
}

// Migrate runs a goose command against the embedded upload_drafts schema.
// Supported commands are up, down, status and version.
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "", "up":
		return goose.UpContext(ctx, database, migrationsDir)
	case "down":
		return goose.DownContext(ctx, database, migrationsDir)
	case "status":
		return goose.StatusContext(ctx, database, migrationsDir)
	case "version":
		v, err := goose.GetDBVersionContext(ctx, database)
		if err != nil {
			return err
		}
		telemetry.Info("db.migrations.version", map[string]any{"version": v})
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
