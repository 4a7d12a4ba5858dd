package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Gemini     GeminiConfig
	Storage    StorageConfig
	Worker     WorkerConfig
	Evaluation EvaluationConfig
}

type ServerConfig struct {
	Port         string `env:"PORT" envDefault:"3000"`
	Env          string `env:"ENV" envDefault:"development"`
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173,http://localhost:3000"`
}

// LogConfig drives NewLogger. File output rotates through lumberjack when
// LOG_FILE is set.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"creative_evaluator"`
}

type GeminiConfig struct {
	APIKey            string  `env:"GEMINI_API_KEY"`
	Model             string  `env:"GEMINI_MODEL" envDefault:"gemini-3-pro-preview"`
	FallbackModel     string  `env:"GEMINI_FALLBACK_MODEL" envDefault:"gemini-3-flash-preview"`
	Temperature       float32 `env:"GEMINI_TEMPERATURE" envDefault:"0.7"`
	TopP              float32 `env:"GEMINI_TOP_P" envDefault:"0.95"`
	MaxOutputTokens   int32   `env:"GEMINI_MAX_OUTPUT_TOKENS" envDefault:"8192"`
	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64 `env:"GEMINI_REQUESTS_PER_SECOND" envDefault:"0"`
	Burst             int     `env:"GEMINI_BURST" envDefault:"8"`
}

type StorageConfig struct {
	UploadPath  string `env:"UPLOAD_PATH" envDefault:"./uploads"`
	MaxFileSize int64  `env:"MAX_FILE_SIZE" envDefault:"10485760"`
}

type WorkerConfig struct {
	Concurrency       int           `env:"WORKER_CONCURRENCY" envDefault:"3"`
	RetryMaxAttempts  int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryInitialDelay time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"2s"`
	PollInterval      time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10s"`
}

// EvaluationConfig tunes the orchestration core. FEIMaxPossible is asserted, not
// derived from the role weights; revisit it whenever a weight or the pattern
// breaker changes.
type EvaluationConfig struct {
	CallTimeout                 time.Duration `env:"EVALUATION_TIMEOUT" envDefault:"120s"`
	FEIMaxPossible              float64       `env:"FEI_MAX_POSSIBLE" envDefault:"76"`
	PatternBreakerPenalty       float64       `env:"PATTERN_BREAKER_PENALTY" envDefault:"0.5"`
	ConfidenceDampenerThreshold float64       `env:"CONFIDENCE_DAMPENER_THRESHOLD" envDefault:"0.7"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Evaluation.FEIMaxPossible <= 0 {
		return nil, fmt.Errorf("FEI_MAX_POSSIBLE must be positive, got %v", cfg.Evaluation.FEIMaxPossible)
	}
	if cfg.Worker.Concurrency < 1 {
		cfg.Worker.Concurrency = 1
	}
	if cfg.Worker.RetryMaxAttempts < 1 {
		cfg.Worker.RetryMaxAttempts = 1
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
		if cfg.IsDevelopment() {
			cfg.Log.Format = "console"
		}
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
