package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"leadaudit/internal/auth"
	"leadaudit/internal/events"
	"leadaudit/internal/server"
	"leadaudit/internal/storage"
	"leadaudit/pkg/database"
	"leadaudit/pkg/logger"
	"leadaudit/pkg/utils"
)

func main() {
	configDir := flag.String("config", "", "directory holding config.yaml")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}

// openBlobs returns the configured store. A MinIO store is returned along
// with the error when its bucket cannot be ensured.
func openBlobs(ctx context.Context, cfg utils.StorageConfig) (storage.BlobStore, error) {
	switch cfg.Driver {
	case "memory":
		return storage.NewMemoryStore("http://"+cfg.Endpoint, cfg.Bucket), nil
	case "minio", "":
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			PublicURL: cfg.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return store, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func run(cfg utils.Config, zl *zap.Logger) error {
	ctx := context.Background()

	if cfg.InsecureJWTSecret() {
		zl.Warn("auth.jwt_secret is the development default; set LEADAUDIT_AUTH_JWT_SECRET before exposing this server")
	}

	db, err := database.Open(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
	}

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		u, err := auth.Bootstrap(ctx, auth.NewRepo(db), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName)
		switch {
		case err != nil:
			zl.Warn("bootstrap admin", zap.Error(err))
		case u != nil:
			zl.Info("created initial admin", zap.String("email", u.Email))
		}
	}

	// Uploads fail until storage is reachable; /setup/status reports it.
	blobs, err := openBlobs(ctx, cfg.Storage)
	if blobs == nil {
		return err
	}
	if err != nil {
		zl.Warn("blob storage unavailable", zap.String("endpoint", cfg.Storage.Endpoint), zap.Error(err))
	}

	hub := events.NewHub()
	defer hub.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewHandler(server.Deps{Config: cfg, DB: db, Blobs: blobs, Hub: hub}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("HTTP API server listening", zap.String("addr", cfg.Server.Addr), zap.String("db", db.Driver))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	zl.Info("server stopped")
	return nil
}
