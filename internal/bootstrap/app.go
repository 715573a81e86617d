package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"notes-upload/internal/extract"
	"notes-upload/internal/notesapi"
	"notes-upload/internal/shared/config"
	"notes-upload/internal/shared/metrics"
	"notes-upload/internal/shared/server"
	"notes-upload/internal/shared/storage/db"
	"notes-upload/internal/shared/storage/object"
	localstore "notes-upload/internal/shared/storage/object/local"
	s3store "notes-upload/internal/shared/storage/object/s3"
	"notes-upload/internal/shared/telemetry"
	"notes-upload/internal/uploads"
	"notes-upload/internal/wizard"
)

// App holds shared dependencies of the hosted wizard.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Store          object.ObjectStore
	Notes          *notesapi.Client
	Metrics        *metrics.Recorder
	UploadsRepo    uploads.Repo
	UploadsService *uploads.Service
	UploadsHandler *uploads.Handler
}

// Option overrides a dependency before services are wired.
type Option func(*App)

// WithUploader replaces the notes backend client used by submits.
func WithUploader(u wizard.Uploader) Option {
	return func(a *App) { a.UploadsService.Uploader = u }
}

// Build prepares dependencies and the router.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notes, err := notesapi.NewClient(cfg.BackendURL, cfg.NotesHTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("notes backend: %w", err)
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Notes:   notes,
		Metrics: metrics.New(),
	}
	buildServices(app)
	for _, opt := range opts {
		opt(app)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		UploadsHandler: app.UploadsHandler,
		Metrics:        app.Metrics,
		DB:             app.DB,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "err": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var repo uploads.Repo
	if app.DB != nil {
		repo = &uploads.PGRepo{DB: app.DB}
	} else {
		repo = uploads.NewMemoryRepo()
	}

	svc := &uploads.Service{
		Repo:           repo,
		Store:          app.Store,
		Uploader:       app.Notes,
		Inspector:      extract.Inspector{},
		Metrics:        app.Metrics,
		NotesListPath:  app.Config.NotesListPath,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}

	app.UploadsRepo = repo
	app.UploadsService = svc
	app.UploadsHandler = uploads.NewHandler(svc)
}
