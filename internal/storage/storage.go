// Package storage persists the complaint collection as a single snapshot
// document with read-all/write-all semantics.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civiclens/backend/internal/config"
	"civiclens/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Storage is the persistence collaborator of the complaint store.
type Storage interface {
	// Load returns the whole collection in persisted order.
	Load(ctx context.Context) ([]models.Complaint, error)
	// Save replaces the whole collection.
	Save(ctx context.Context, complaints []models.Complaint) error
}

// SnapshotRecord is the PostgreSQL row holding one collection snapshot.
type SnapshotRecord struct {
	Collection string `gorm:"primaryKey"`
	Version    int
	Document   string `gorm:"type:jsonb;not null"`
	UpdatedAt  time.Time
}

// Service stores snapshots in PostgreSQL and mirrors them into Redis. PostgreSQL
// is the source of truth; the mirror is read only when PostgreSQL fails. With a
// nil DB, Redis is the primary store.
type Service struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Collection string
	Logger     *zap.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		DB:         db,
		Redis:      rdb,
		Collection: config.SnapshotCollection,
		Logger:     logger,
	}
}

// AutoMigrate creates the snapshot table.
func (s *Service) AutoMigrate() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.AutoMigrate(&SnapshotRecord{})
}

func (s *Service) redisKey() string {
	return "snapshot:" + s.Collection
}

// Load reads PostgreSQL and refreshes the Redis mirror from it. If PostgreSQL
// fails, the mirror is used instead. Without a DB, Redis is read directly.
func (s *Service) Load(ctx context.Context) ([]models.Complaint, error) {
	if s.DB == nil {
		if s.Redis == nil {
			return nil, errors.New("storage: no backend configured")
		}
		data, err := s.Redis.Get(ctx, s.redisKey()).Bytes()
		if errors.Is(err, redis.Nil) {
			return []models.Complaint{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load snapshot from redis: %w", err)
		}
		return Decode(data)
	}

	var record SnapshotRecord
	err := s.DB.WithContext(ctx).Where("collection = ?", s.Collection).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.refreshMirror(ctx, nil)
		return []models.Complaint{}, nil
	case err != nil:
		return s.loadMirror(ctx, fmt.Errorf("load snapshot from postgres: %w", err))
	}

	complaints, err := Decode([]byte(record.Document))
	if err != nil {
		return nil, err
	}
	s.refreshMirror(ctx, []byte(record.Document))
	return complaints, nil
}

// loadMirror serves the Redis copy after PostgreSQL failed with dbErr.
func (s *Service) loadMirror(ctx context.Context, dbErr error) ([]models.Complaint, error) {
	if s.Redis == nil {
		return nil, dbErr
	}
	data, err := s.Redis.Get(ctx, s.redisKey()).Bytes()
	if err != nil {
		return nil, errors.Join(dbErr, fmt.Errorf("load snapshot from redis: %w", err))
	}
	s.Logger.Warn("PostgreSQL unavailable, loaded snapshot from Redis mirror", zap.Error(dbErr))
	return Decode(data)
}

// refreshMirror overwrites the mirror with the durable document, or drops it
// when there is none.
func (s *Service) refreshMirror(ctx context.Context, data []byte) {
	if s.Redis == nil {
		return
	}
	var err error
	if data == nil {
		err = s.Redis.Del(ctx, s.redisKey()).Err()
	} else {
		err = s.Redis.Set(ctx, s.redisKey(), data, 0).Err()
	}
	if err != nil {
		s.Logger.Warn("Failed to refresh Redis snapshot mirror", zap.Error(err))
	}
}

// Save writes the snapshot durably, then refreshes the Redis mirror.
func (s *Service) Save(ctx context.Context, complaints []models.Complaint) error {
	data, err := Encode(complaints)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if s.DB == nil {
		if s.Redis == nil {
			return errors.New("storage: no backend configured")
		}
		if err := s.Redis.Set(ctx, s.redisKey(), data, 0).Err(); err != nil {
			return fmt.Errorf("save snapshot to redis: %w", err)
		}
		return nil
	}

	record := SnapshotRecord{
		Collection: s.Collection,
		Version:    config.SnapshotSchemaVersion,
		Document:   string(data),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Save(&record).Error; err != nil {
		s.Logger.Error("Failed to save snapshot", zap.String("collection", s.Collection), zap.Error(err))
		return fmt.Errorf("save snapshot to postgres: %w", err)
	}

	s.refreshMirror(ctx, data)
	return nil
}
