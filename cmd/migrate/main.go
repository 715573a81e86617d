package main

// Manage the upload_drafts schema:
//   go run ./cmd/migrate [up|down|status|version]

import (
	"context"
	"os"

	"notes-upload/internal/shared/config"
	"notes-upload/internal/shared/storage/db"
	"notes-upload/internal/shared/telemetry"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}

	err = db.Migrate(ctx, sqlDB, command)
	sqlDB.Close()
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "err": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": command})
}
