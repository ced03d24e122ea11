package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/magefree/mage-tracker-go/internal/config"
	"github.com/magefree/mage-tracker-go/internal/repository"
	"github.com/magefree/mage-tracker-go/internal/scryfall"
	"github.com/magefree/mage-tracker-go/internal/server"
	"github.com/magefree/mage-tracker-go/internal/session"
	"github.com/magefree/mage-tracker-go/internal/storage"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting game tracker",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Local autosave store
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Fatal("failed to open autosave store", zap.Error(err))
	}
	defer store.Close()
	logger.Info("autosave store opened", zap.String("path", cfg.Storage.Path))

	// Optional Postgres archive
	var archive *repository.Archive
	if cfg.Database.URL != "" {
		archive, err = repository.Connect(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Warn("archive database unavailable, continuing without it", zap.Error(err))
			archive = nil
		} else {
			defer archive.Close()
		}
	}

	// Card lookup
	cards := scryfall.New(logger, cfg.Scryfall.BatchDelay,
		scryfall.WithBaseURL(cfg.Scryfall.BaseURL),
		scryfall.WithTimeout(cfg.Scryfall.Timeout),
	)
	defer cards.Close()

	// Session manager
	manager := session.NewManager(store, archive, logger, cfg.Storage.AutosaveInterval)
	defer manager.Close()
	logger.Info("session manager initialized",
		zap.Duration("autosave_interval", cfg.Storage.AutosaveInterval),
	)

	if saved, err := manager.PeekSaved(); err == nil {
		logger.Info("saved game found, waiting for the table to resume or discard",
			zap.String("id", saved.ID),
			zap.Int("turn", saved.TurnCount),
			zap.Int("players", len(saved.Players)),
		)
	} else if !errors.Is(err, storage.ErrNoSave) {
		logger.Warn("saved game unreadable", zap.Error(err))
	}

	srv := server.New(manager, cards, logger)
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: srv.Routes(),
	}

	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	if err := manager.Close(); err != nil {
		logger.Warn("final save failed", zap.Error(err))
	}

	logger.Info("game tracker stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
