// Package config holds the environment-driven service configuration and
// the policy constants used by the triage engine.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config is the runtime configuration of the service.
type Config struct {
	HTTPAddr string
	// CORSOrigins is empty when every origin is allowed.
	CORSOrigins []string

	Log struct {
		Level  string
		Format string
	}

	StorageBackend string
	DatabaseDSN    string

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Mongo struct {
		URI      string
		Database string
	}

	ClassifierURL     string
	ClassifierTimeout time.Duration

	SubmissionRateLimit int

	TelegramBotToken string
	LocalesDir       string
}

// Load reads the configuration from environment variables, applying defaults
// where a variable is unset. Call godotenv.Load before Load to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" && origin != "*" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.StorageBackend = getEnv("STORAGE_BACKEND", BackendPostgres)
	switch cfg.StorageBackend {
	case BackendPostgres, BackendRedis, BackendMongo, BackendMemory:
	default:
		return nil, &InvalidValueError{Key: "STORAGE_BACKEND", Value: cfg.StorageBackend, Err: errUnknownBackend}
	}
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "host=localhost user=user password=password dbname=civiclens port=5432 sslmode=disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = db

	cfg.Mongo.URI = getEnv("MONGODB_URI", "mongodb://localhost:27017")
	cfg.Mongo.Database = getEnv("MONGODB_DATABASE", "civiclens")

	cfg.ClassifierURL = getEnv("CLASSIFIER_URL", "")
	timeout, err := getEnvDuration("CLASSIFIER_TIMEOUT", DefaultClassifierTimeout)
	if err != nil {
		return nil, err
	}
	cfg.ClassifierTimeout = timeout

	limit, err := getEnvInt("SUBMISSION_RATE_LIMIT", DefaultSubmissionRateLimit)
	if err != nil {
		return nil, err
	}
	cfg.SubmissionRateLimit = limit

	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.LocalesDir = getEnv("LOCALES_DIR", "internal/localization/locales")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &InvalidValueError{Key: key, Value: value, Err: err}
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &InvalidValueError{Key: key, Value: value, Err: err}
	}
	return d, nil
}

var errUnknownBackend = errors.New("unknown storage backend")

// InvalidValueError reports an environment variable that could not be parsed.
type InvalidValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return "config: invalid value " + strconv.Quote(e.Value) + " for " + e.Key + ": " + e.Err.Error()
}

func (e *InvalidValueError) Unwrap() error { return e.Err }
