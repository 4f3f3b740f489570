package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache API密钥验证结果缓存 - 键为摘要，值为租户标识。
// 只缓存命中结果；密钥被替换或吊销时必须同步删除对应条目，
// 保证旧密钥立即失效。
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisCache 创建Redis缓存实例
func NewRedisCache(config *Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "factura:apikey"
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Close 关闭Redis连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping 测试Redis连接
func (c *RedisCache) Ping() error {
	ctx := context.Background()
	return c.client.Ping(ctx).Err()
}

// key 组装缓存键
func (c *RedisCache) key(digest string) string {
	return fmt.Sprintf("%s:%s", c.prefix, digest)
}

// Get 按摘要查询缓存的租户标识，未命中返回空字符串
func (c *RedisCache) Get(ctx context.Context, digest string) (string, error) {
	val, err := c.client.Get(ctx, c.key(digest)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set 写入摘要到租户的映射
func (c *RedisCache) Set(ctx context.Context, digest, tenantID string) error {
	return c.client.Set(ctx, c.key(digest), tenantID, c.ttl).Err()
}

// Delete 删除摘要对应的缓存条目
func (c *RedisCache) Delete(ctx context.Context, digest string) error {
	return c.client.Del(ctx, c.key(digest)).Err()
}
