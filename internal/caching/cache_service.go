package caching

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"inmobiliaria/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "inmobiliaria"

type CacheService interface {
	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	// TakeString returns the value and removes the key in one step
	TakeString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Parse Redis URL to extract host:port if protocol is included
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	// Test initial connectivity
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Get().Warn("Redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(pingErr))
	} else {
		logger.Get().Debug("Redis connection established", zap.String("addr", parsedAddr))
	}

	return &redisCacheService{client: client}
}

func prefixed(key string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, key)
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := prefixed("ratelimit:" + key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, prefixed(key), value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, prefixed(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) TakeString(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, prefixed(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, prefixed(key)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// memoryCacheService keeps keys in process; used when Redis is disabled
type memoryCacheService struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	nowFn   func() time.Time
}

func NewMemoryCacheService() CacheService {
	return &memoryCacheService{
		entries: make(map[string]memoryEntry),
		nowFn:   time.Now,
	}
}

// get must be called with mu held
func (m *memoryCacheService) get(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.nowFn().Before(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *memoryCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cacheKey := "ratelimit:" + key
	e, ok := m.get(cacheKey)
	count := 1
	if ok {
		count, _ = strconv.Atoi(e.value)
		count++
	} else {
		e.expiresAt = m.nowFn().Add(window)
	}
	e.value = strconv.Itoa(count)
	m.entries[cacheKey] = e
	return count > limit, nil
}

func (m *memoryCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.nowFn().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *memoryCacheService) GetString(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, _ := m.get(key)
	return e.value, nil
}

func (m *memoryCacheService) TakeString(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, _ := m.get(key)
	delete(m.entries, key)
	return e.value, nil
}

func (m *memoryCacheService) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryCacheService) Ping(ctx context.Context) error {
	return nil
}
