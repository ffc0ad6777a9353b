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
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/api"
	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/config"
	"github.com/unalkalkan/OneClickStudio/internal/credential"
	"github.com/unalkalkan/OneClickStudio/internal/export"
	"github.com/unalkalkan/OneClickStudio/internal/generation"
	"github.com/unalkalkan/OneClickStudio/internal/health"
	"github.com/unalkalkan/OneClickStudio/internal/illustration"
	"github.com/unalkalkan/OneClickStudio/internal/media"
	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/internal/storage"
	"github.com/unalkalkan/OneClickStudio/internal/video"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "config/dev.example.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogging(cfg.Logging)

	log.Info().Str("version", version).Str("config", *configPath).Msg("Starting OneClickStudio server")

	storageAdapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage adapter")
	}
	defer storageAdapter.Close()
	log.Info().Str("adapter", cfg.Storage.Adapter).Msg("Storage adapter initialized")

	keyring := credential.NewKeyring(cfg.Provider.APIKeyEnv)
	classifier := apierror.NewClassifier(keyring)

	registry := provider.NewRegistry()
	model, err := registry.Initialize(cfg.Provider, keyring)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize model provider")
	}
	defer registry.Close()
	log.Info().Strs("providers", registry.List()).Msg("Model provider initialized")

	models := cfg.Provider.Models
	mediaClient := media.NewClient(model, classifier, models, cfg.Media)
	videoJobs := video.NewJobs(video.NewClient(model, keyring, classifier, models, cfg.Video))

	store, err := product.NewStore(context.Background(), storageAdapter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load product store")
	}
	products := product.NewService(store, generation.NewClient(model, classifier, models, cfg.Media.ThinkingBudget), mediaClient)
	illustrator := illustration.NewIllustrator(store, mediaClient)

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", health.PingCheck(store))
	healthHandler.Register("models", health.ListCheck("models", registry.List))
	healthHandler.Register("credential", health.CredentialCheck(keyring.Resolve))

	router := api.NewRouter(api.Deps{
		Version:     version,
		Config:      cfg,
		Health:      healthHandler,
		Registry:    registry,
		Model:       model,
		Classifier:  classifier,
		Keyring:     keyring,
		Products:    products,
		Illustrator: illustrator,
		Media:       mediaClient,
		Videos:      videoJobs,
		Exporter:    export.NewExporter(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// background work may still be writing to the store
	videoJobs.Shutdown()
	illustrator.Shutdown()
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close product store")
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg types.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
