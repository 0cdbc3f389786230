package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/protosskai/RssReader/app/api"
	"github.com/protosskai/RssReader/app/cfg"
	"github.com/protosskai/RssReader/app/database"
	"github.com/protosskai/RssReader/app/feed"
	"github.com/protosskai/RssReader/app/fetch"
	"github.com/protosskai/RssReader/app/syncer"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting RssReader server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	coordinator := database.NewCoordinator(db)
	defer coordinator.Close()

	sourceRepo := database.NewSourceRepository(coordinator)
	articleRepo := database.NewArticleRepository(coordinator)

	cacheTTL := time.Duration(appCfg.CacheTTL) * time.Second
	fetchClient := fetch.NewClient(time.Duration(appCfg.FetchTimeout)*time.Second, appCfg.UserAgent, cacheTTL)
	parser := feed.NewParser()
	extractor := feed.NewContentExtractor()

	syncDefaults := syncer.DefaultConfig()
	syncDefaults.BatchSize = appCfg.SyncBatchSize
	syncConfig, err := syncer.LoadConfig(appCfg.SyncConfigPath, syncDefaults)
	if err != nil {
		slog.Error("Failed to load sync configuration", "path", appCfg.SyncConfigPath, "error", err)
		os.Exit(1)
	}

	orchestrator := syncer.NewOrchestrator(sourceRepo, articleRepo, fetchClient, parser,
		syncer.NewLogNotifier(), syncConfig, appCfg.SyncConfigPath, cacheTTL)
	orchestrator.StartAutoSync()
	defer orchestrator.StopAutoSync()

	handler := api.NewHandler(sourceRepo, articleRepo, orchestrator, extractor)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
