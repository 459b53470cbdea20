package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/renfield/atelier/internal/config"
	"github.com/renfield/atelier/internal/logger"
	"github.com/renfield/atelier/internal/queue"
	"github.com/renfield/atelier/internal/repository"
	"github.com/renfield/atelier/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "atelier-worker",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()
	if *configPath == "" {
		*configPath = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			appLogger.WithError(err).Fatal("Failed to migrate database")
		}
	}

	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Qdrant.Dimensions,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
	}
	defer qdrantRepo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
	}

	embeddingService := service.NewEmbeddingService(&service.EmbeddingConfig{
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
	})

	indexer := service.NewIndexer(embeddingService, qdrantRepo, appLogger)

	jobQueue := queue.New(db, &queue.Config{
		MaxAttempts: cfg.Indexer.MaxAttempts,
		BackoffBase: cfg.Indexer.BackoffBase,
	})

	worker := queue.NewWorker(jobQueue, indexer, appLogger, &queue.WorkerConfig{
		JobsPerMinute: cfg.Indexer.JobsPerMinute,
		Burst:         cfg.Indexer.Burst,
		PollInterval:  cfg.Indexer.PollInterval,
		BatchSize:     cfg.Indexer.BatchSize,
		JobTimeout:    cfg.Indexer.JobTimeout,
	})

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.WithError(err).Fatal("Worker stopped unexpectedly")
	}

	appLogger.Info("Worker exited")
}
