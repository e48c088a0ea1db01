// Package session keeps the single currently valid refresh token of each user.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry 刷新令牌白名单；每个用户只保留一个
type Registry interface {
	Store(ctx context.Context, userID int64, token string, ttl time.Duration) error
	Validate(ctx context.Context, userID int64, token string) (bool, error)
	Revoke(ctx context.Context, userID int64) error
}

func Key(userID int64) string { return fmt.Sprintf("refresh:%d", userID) }

type RedisRegistry struct{ rdb redis.UniversalClient }

func NewRedis(rdb redis.UniversalClient) *RedisRegistry { return &RedisRegistry{rdb: rdb} }

func (r *RedisRegistry) Store(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	return r.rdb.Set(ctx, Key(userID), token, ttl).Err()
}

func (r *RedisRegistry) Validate(ctx context.Context, userID int64, token string) (bool, error) {
	saved, err := r.rdb.Get(ctx, Key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(saved), []byte(token)) == 1, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, userID int64) error {
	return r.rdb.Del(ctx, Key(userID)).Err()
}

// MemoryRegistry 单实例部署用的进程内实现
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[int64]memEntry
	now     func() time.Time
}

type memEntry struct {
	token string
	exp   time.Time
}

func NewMemory() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[int64]memEntry), now: time.Now}
}

func (m *MemoryRegistry) Store(_ context.Context, userID int64, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = memEntry{token: token, exp: m.now().Add(ttl)}
	return nil
}

func (m *MemoryRegistry) Validate(_ context.Context, userID int64, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		return false, nil
	}
	if !m.now().Before(e.exp) {
		delete(m.entries, userID)
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(e.token), []byte(token)) == 1, nil
}

func (m *MemoryRegistry) Revoke(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}
