package config_test

import (
	"errors"
	"testing"
	"time"

	"civiclens/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("CLASSIFIER_TIMEOUT", "")
	t.Setenv("SUBMISSION_RATE_LIMIT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, config.BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, config.DefaultClassifierTimeout, cfg.ClassifierTimeout)
	assert.Equal(t, config.DefaultSubmissionRateLimit, cfg.SubmissionRateLimit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", config.BackendMemory)
	t.Setenv("CLASSIFIER_URL", "http://classifier:9000")
	t.Setenv("CLASSIFIER_TIMEOUT", "750ms")
	t.Setenv("SUBMISSION_RATE_LIMIT", "3")
	t.Setenv("REDIS_ADDR", "localhost:6380")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "http://classifier:9000", cfg.ClassifierURL)
	assert.Equal(t, 750*time.Millisecond, cfg.ClassifierTimeout)
	assert.Equal(t, 3, cfg.SubmissionRateLimit)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CLASSIFIER_TIMEOUT", "soon")

	_, err := config.Load()

	var invalid *config.InvalidValueError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "CLASSIFIER_TIMEOUT", invalid.Key)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")

	_, err := config.Load()

	var invalid *config.InvalidValueError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "STORAGE_BACKEND", invalid.Key)
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://civiclens.example, https://admin.civiclens.example,")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://civiclens.example", "https://admin.civiclens.example"}, cfg.CORSOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", "*")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.CORSOrigins)
}
