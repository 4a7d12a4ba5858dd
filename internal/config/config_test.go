package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "gemini-3-pro-preview", cfg.Gemini.Model)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Gemini.FallbackModel)
	assert.Equal(t, int32(8192), cfg.Gemini.MaxOutputTokens)
	assert.Equal(t, 120*time.Second, cfg.Evaluation.CallTimeout)
	assert.Equal(t, 76.0, cfg.Evaluation.FEIMaxPossible)
	assert.Equal(t, 0.5, cfg.Evaluation.PatternBreakerPenalty)
	assert.Equal(t, 0.7, cfg.Evaluation.ConfidenceDampenerThreshold)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.Gemini.RequestsPerSecond)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("EVALUATION_TIMEOUT", "30s")
	t.Setenv("FEI_MAX_POSSIBLE", "120")
	t.Setenv("WORKER_CONCURRENCY", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Second, cfg.Evaluation.CallTimeout)
	assert.Equal(t, 120.0, cfg.Evaluation.FEIMaxPossible)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_RejectsNonPositiveMaxPossible(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FEI_MAX_POSSIBLE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EVALUATION_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "n"}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := NewLogger(LogConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluator.log")

	logger, err := NewLogger(LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Info("file sink check")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file sink check")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
