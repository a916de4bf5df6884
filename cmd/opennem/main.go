package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/opennem/opennem-sub002/internal/core/config"
	"github.com/opennem/opennem-sub002/internal/core/fixtures"
	"github.com/opennem/opennem-sub002/internal/core/network"
	"github.com/opennem/opennem-sub002/internal/core/storage/postgres"
	"github.com/opennem/opennem-sub002/internal/exporter"
	"github.com/opennem/opennem-sub002/internal/ingestion"
	"github.com/opennem/opennem-sub002/internal/migrations"
	"github.com/opennem/opennem-sub002/internal/rangecache"
	"github.com/opennem/opennem-sub002/internal/server"
	"github.com/opennem/opennem-sub002/internal/stats"
)

func main() {
	configPath := flag.String("config", "opennem.yaml", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	networks, err := network.NewRegistry(cfg.Networks)
	if err != nil {
		slog.Error("Failed to build network registry", "error", err)
		os.Exit(1)
	}

	fix, err := fixtures.LoadDir(cfg.Fixtures.Path)
	if err != nil {
		slog.Error("Failed to load fixtures", "error", err)
		os.Exit(1)
	}

	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	cacheTTL, err := cfg.Cache.CacheTTL()
	if err != nil {
		slog.Error("Invalid cache TTL", "value", cfg.Cache.TTL, "error", err)
		os.Exit(1)
	}
	boundaries := rangecache.New(dbAdapter, cfg.Cache.Capacity, cacheTTL)

	statsSvc := stats.NewService(dbAdapter, boundaries, networks, fix, cfg.Version)
	ingestionSvc := ingestion.NewService(dbAdapter, networks, cfg.Server.MaxBodySizeMB)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	statsSvc.RegisterRoutes(srv.Engine)
	ingestionSvc.RegisterRoutes(srv.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Exporter.Enabled {
		target, err := buildExportTarget(cfg.Exporter)
		if err != nil {
			slog.Error("Failed to initialize export target", "error", err)
			os.Exit(1)
		}
		exportInterval, err := cfg.Exporter.ExportInterval()
		if err != nil {
			slog.Error("Invalid export interval", "value", cfg.Exporter.Interval, "error", err)
			os.Exit(1)
		}

		exp := exporter.New(statsSvc, target, networks.Codes())
		scheduler := exporter.NewScheduler(exportInterval, exp)
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Export scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Export scheduler disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func buildExportTarget(cfg corecfg.ExporterConfig) (exporter.Target, error) {
	switch cfg.Target {
	case "s3":
		return exporter.NewS3Target(
			cfg.S3.Endpoint,
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			cfg.S3.Bucket,
			cfg.S3.Secure,
		)
	default:
		return exporter.NewFileSystemTarget(cfg.OutputDir), nil
	}
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
