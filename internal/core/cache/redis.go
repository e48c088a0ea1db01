package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache 读穿透缓存；nil *Cache 表示未配置 Redis，直接回源
type Cache struct {
	RDB    redis.UniversalClient
	Prefix string
	sf     singleflight.Group
}

func New(rdb redis.UniversalClient, prefix string) *Cache {
	return &Cache{RDB: rdb, Prefix: prefix}
}

func (c *Cache) key(k string) string { return c.Prefix + k }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil || c.RDB == nil {
		return load(ctx)
	}
	// 先读缓存
	if b, err := c.RDB.Get(ctx, c.key(key)).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(ctx, c.key(key), b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate 删除若干 key；失败只影响新鲜度，调用方可忽略
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.RDB == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.RDB.Del(ctx, full...).Err()
}

// InvalidatePattern 按前缀模式删除（SCAN，不阻塞）
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	iter := c.RDB.Scan(ctx, 0, c.key(pattern), 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	return c.RDB.Del(ctx, batch...).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.RDB == nil {
		return redis.ErrClosed
	}
	return c.RDB.Ping(ctx).Err()
}
