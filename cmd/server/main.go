// Command server runs the image enhancement service.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/brightroom/brightroom/adapters/decoder"
	"github.com/brightroom/brightroom/adapters/encoder"
	"github.com/brightroom/brightroom/adapters/storage"
	"github.com/brightroom/brightroom/adapters/vips"
	"github.com/brightroom/brightroom/auth"
	"github.com/brightroom/brightroom/config"
	"github.com/brightroom/brightroom/core"
	"github.com/brightroom/brightroom/enhance"
	"github.com/brightroom/brightroom/hooks"
	"github.com/brightroom/brightroom/server"
	"github.com/brightroom/brightroom/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	users, err := store.NewUsers(ctx, filepath.Join(cfg.DataDir, "users.json"))
	if err != nil {
		return err
	}
	history, err := store.NewHistory(filepath.Join(cfg.DataDir, "history.json"))
	if err != nil {
		return err
	}

	assets, err := storage.NewLocal(cfg.UploadDir, 0)
	if err != nil {
		return err
	}

	registry := core.NewRegistry()
	var factory enhance.StepFactory
	switch cfg.Backend {
	case config.BackendVips:
		backend := vips.NewBackend(vips.BackendConfig{DefaultQuality: cfg.Quality})
		defer backend.Shutdown()
		vips.Register(registry, backend)
		factory = vips.Factory{}
	default:
		registry.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
		registry.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
		registry.RegisterDecoder(core.FormatWebP, decoder.NewWebP())
		registry.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(cfg.Quality))
		registry.RegisterEncoder(core.FormatPNG, encoder.NewPNG())
		registry.RegisterEncoder(core.FormatWebP, encoder.NewWebP(cfg.Quality))
		factory = enhance.NativeFactory{}
	}

	dispatcher := enhance.NewDispatcher(assets, registry, factory, cfg.Quality)
	dispatcher.AddHook(hooks.NewLoggingHook(log))
	dispatcher.AddHook(hooks.NewStepMetrics())

	srv := server.New(cfg, log, auth.New(users), history, assets, dispatcher)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "backend", string(cfg.Backend))
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
