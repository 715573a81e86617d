package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-upload/internal/bootstrap"
	"notes-upload/internal/shared/config"
	"notes-upload/internal/shared/server"
	"notes-upload/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env, "backend_url": cfg.BackendURL})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		telemetry.Error("server.failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
}
