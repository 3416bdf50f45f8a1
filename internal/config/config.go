package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/medassist/claims-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Database configuration (policy store)
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Core component configuration
	IndexCfg     IndexConfig     `envPrefix:"INDEX_"`
	IngestCfg    IngestConfig    `envPrefix:"INGEST_"`
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`

	// External model backends
	EmbeddingCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	LLMCfg       LLMConnectorConfig       `envPrefix:"LLM_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// IndexConfig locates the persisted vector collection
type IndexConfig struct {
	Dir        string `env:"DIR" envDefault:"data/index"`
	Collection string `env:"COLLECTION" envDefault:"medclaim-docs"`
}

// IngestConfig bounds document ingestion
type IngestConfig struct {
	ChunkSize        int `env:"CHUNK_SIZE" envDefault:"700"`
	ChunkOverlap     int `env:"CHUNK_OVERLAP" envDefault:"150"`
	MaxDocumentBytes int `env:"MAX_DOCUMENT_BYTES" envDefault:"5242880"`
}

// RetrievalConfig tunes the QA pipeline
type RetrievalConfig struct {
	TopK              int           `env:"TOP_K" envDefault:"3"`
	ContextCharBudget int           `env:"CONTEXT_CHAR_BUDGET" envDefault:"6000"`
	QueryTimeout      time.Duration `env:"QUERY_TIMEOUT" envDefault:"60s"`
	PipelineCacheTTL  time.Duration `env:"PIPELINE_CACHE_TTL" envDefault:"30m"`
}

// EmbeddingConnectorConfig configures the embedding provider backend
// (OpenAI-compatible embeddings API)
type EmbeddingConnectorConfig struct {
	BaseURL   string               `env:"BASE_URL"`
	APIKey    string               `env:"API_KEY"`
	Model     string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	Dimension int                  `env:"DIMENSION" envDefault:"1536"`
	Timeout   time.Duration        `env:"TIMEOUT" envDefault:"30s"`
	BatchSize int                  `env:"BATCH_SIZE" envDefault:"64"`
	Retry     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// LLMConnectorConfig configures the answer-synthesis backend
// (Ollama-compatible generate API)
type LLMConnectorConfig struct {
	Url                   string               `env:"SERVICE_URL" envDefault:"http://localhost:11434"`
	Token                 string               `env:"TOKEN"`
	Model                 string               `env:"MODEL" envDefault:"gemma:2b-instruct-q4_K_M"`
	Temperature           float64              `env:"TEMPERATURE" envDefault:"0.2"`
	RequestTimeout        time.Duration        `env:"TIMEOUT" envDefault:"120s"`
	ConnTimeout           time.Duration        `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration        `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration        `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration        `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Retry                 pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.IngestCfg.ChunkSize <= 0 {
		return fmt.Errorf("INGEST_CHUNK_SIZE must be positive, got %d", cfg.IngestCfg.ChunkSize)
	}
	if cfg.IngestCfg.ChunkOverlap < 0 || cfg.IngestCfg.ChunkOverlap >= cfg.IngestCfg.ChunkSize {
		return fmt.Errorf("INGEST_CHUNK_OVERLAP must be in [0, chunk size), got %d with chunk size %d",
			cfg.IngestCfg.ChunkOverlap, cfg.IngestCfg.ChunkSize)
	}

	if cfg.RetrievalCfg.TopK < 1 || cfg.RetrievalCfg.TopK > 50 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be between 1 and 50, got %d", cfg.RetrievalCfg.TopK)
	}
	if cfg.RetrievalCfg.ContextCharBudget < 100 {
		return fmt.Errorf("RETRIEVAL_CONTEXT_CHAR_BUDGET must be at least 100, got %d", cfg.RetrievalCfg.ContextCharBudget)
	}

	if cfg.EmbeddingCfg.Dimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingCfg.Dimension)
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns)
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns)
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
