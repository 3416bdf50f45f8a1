package builder

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/medassist/claims-backend/internal/api"
	claimapi "github.com/medassist/claims-backend/internal/api/claim"
	documentapi "github.com/medassist/claims-backend/internal/api/document"
	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/index"
	"github.com/medassist/claims-backend/internal/integration/embedding"
	"github.com/medassist/claims-backend/internal/integration/llm"
	"github.com/medassist/claims-backend/internal/pkg/validator"
	"github.com/medassist/claims-backend/internal/repository"
	"github.com/medassist/claims-backend/internal/retrieval"
	"github.com/medassist/claims-backend/internal/usecase/claim"
	documentuc "github.com/medassist/claims-backend/internal/usecase/document"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	policyRepo := repository.NewPolicyPostgres(db)
	logger.Info("Repositories initialized")

	// Open the persistent vector index
	indexDir := filepath.Join(cfg.IndexCfg.Dir, cfg.IndexCfg.Collection)
	store, err := index.Open(indexDir, cfg.EmbeddingCfg.Dimension, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	logger.Info("Vector index opened",
		zap.String("dir", indexDir),
		zap.Int("dimension", cfg.EmbeddingCfg.Dimension),
	)

	// Initialize external model connectors (with mock support)
	var embedder documentuc.EmbeddingConnector
	var generator retrieval.Generator

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimension, logger)
		generator = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embeddingConnector, err := embedding.NewConnector(cfg.EmbeddingCfg, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize embedding connector: %w", err)
		}
		embedder = embeddingConnector
		generator = llm.NewConnector(cfg.LLMCfg, logger)
	}

	// Initialize validators
	docValidator := validator.NewValidator(cfg.IngestCfg)
	logger.Info("Validators initialized")

	// Initialize the retrieval engine
	retrievalEngine := retrieval.NewEngine(cfg.RetrievalCfg, embedder, generator, store, logger)

	// Initialize use cases
	documentUC := documentuc.NewUsecase(
		cfg.IngestCfg,
		cfg.RetrievalCfg,
		embedder,
		store,
		retrievalEngine,
		docValidator,
		logger,
	)
	claimUC := claim.NewUsecase(policyRepo, docValidator, logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(documentUC)
	claimHandler := claimapi.NewHandler(claimUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, claimHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

func setupLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = lvl

	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}
