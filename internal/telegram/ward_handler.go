package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Preferences remembers per-chat settings between messages.
type Preferences interface {
	Ward(ctx context.Context, chatID int64) (string, error)
	SetWard(ctx context.Context, chatID int64, ward string) error
	Language(ctx context.Context, chatID int64) (string, error)
	SetLanguage(ctx context.Context, chatID int64, lang string) error
}

// MemoryPreferences keeps chat settings in process memory.
type MemoryPreferences struct {
	mu    sync.RWMutex
	wards map[int64]string
	langs map[int64]string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{wards: make(map[int64]string), langs: make(map[int64]string)}
}

func (m *MemoryPreferences) Ward(_ context.Context, chatID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wards[chatID], nil
}

func (m *MemoryPreferences) SetWard(_ context.Context, chatID int64, ward string) error {
	m.mu.Lock()
	m.wards[chatID] = ward
	m.mu.Unlock()
	return nil
}

func (m *MemoryPreferences) Language(_ context.Context, chatID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.langs[chatID], nil
}

func (m *MemoryPreferences) SetLanguage(_ context.Context, chatID int64, lang string) error {
	m.mu.Lock()
	m.langs[chatID] = lang
	m.mu.Unlock()
	return nil
}

// RedisPreferences stores chat settings in a Redis hash per chat, so they
// survive restarts and are shared between bot replicas.
type RedisPreferences struct {
	Client *redis.Client
	Prefix string
}

func NewRedisPreferences(rdb *redis.Client) *RedisPreferences {
	return &RedisPreferences{Client: rdb, Prefix: "tg:chat"}
}

func (r *RedisPreferences) key(chatID int64) string {
	return r.Prefix + ":" + strconv.FormatInt(chatID, 10)
}

func (r *RedisPreferences) get(ctx context.Context, chatID int64, field string) (string, error) {
	v, err := r.Client.HGet(ctx, r.key(chatID), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read chat %s: %w", field, err)
	}
	return v, nil
}

func (r *RedisPreferences) set(ctx context.Context, chatID int64, field, value string) error {
	if err := r.Client.HSet(ctx, r.key(chatID), field, value).Err(); err != nil {
		return fmt.Errorf("write chat %s: %w", field, err)
	}
	return nil
}

func (r *RedisPreferences) Ward(ctx context.Context, chatID int64) (string, error) {
	return r.get(ctx, chatID, "ward")
}

func (r *RedisPreferences) SetWard(ctx context.Context, chatID int64, ward string) error {
	return r.set(ctx, chatID, "ward", ward)
}

func (r *RedisPreferences) Language(ctx context.Context, chatID int64) (string, error) {
	return r.get(ctx, chatID, "lang")
}

func (r *RedisPreferences) SetLanguage(ctx context.Context, chatID int64, lang string) error {
	return r.set(ctx, chatID, "lang", lang)
}

// handleWardCommand processes /ward <name>.
func (s *BotService) handleWardCommand(ctx context.Context, c *Client, args string) {
	ward := strings.TrimSpace(args)
	if ward == "" {
		c.Reply(s.Localizer.GetString(c.Lang, "bot.ward_usage"))
		return
	}
	if err := s.Prefs.SetWard(ctx, c.ChatID, ward); err != nil {
		s.Logger.Error("Failed to store ward", zap.Int64("chat_id", c.ChatID), zap.Error(err))
		c.Reply(s.Localizer.GetString(c.Lang, "error.persistence"))
		return
	}
	c.Reply(s.Localizer.Format(c.Lang, "bot.ward_set", ward))
}
