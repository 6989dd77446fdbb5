package storage

import (
	"context"
	"errors"
	"fmt"

	"civiclens/backend/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Backend is an opened Storage and the connections behind it.
type Backend struct {
	Storage Storage
	// Redis is shared with the rate limiter and the bot; nil when REDIS_ADDR is unset.
	Redis *redis.Client

	closers []func() error
}

// Close releases every connection opened by Open.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects the backend named by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			if cfg.StorageBackend == config.BackendRedis {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			logger.Warn("Redis unavailable, continuing without it", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			b.Redis = rdb
			b.closers = append(b.closers, rdb.Close)
		}
	}

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			b.closers = append(b.closers, sqlDB.Close)
		}
		svc := NewStorageService(db, b.Redis, logger)
		if err := svc.AutoMigrate(); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("migrate snapshot table: %w", err)
		}
		b.Storage = svc

	case config.BackendRedis:
		if b.Redis == nil {
			return nil, errors.New("storage backend redis requires REDIS_ADDR")
		}
		b.Storage = NewStorageService(nil, b.Redis, logger)

	case config.BackendMongo:
		db, err := ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() error { return db.Client().Disconnect(context.Background()) })
		b.Storage = NewMongoStore(db)

	case config.BackendMemory:
		logger.Warn("Using in-memory storage; complaints are lost on restart")
		b.Storage = NewMemoryStore()

	default:
		_ = b.Close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	logger.Info("Storage ready", zap.String("backend", cfg.StorageBackend), zap.Bool("redis", b.Redis != nil))
	return b, nil
}
