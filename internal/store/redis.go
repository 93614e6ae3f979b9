package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions 为 Redis 连接参数；TTL 为 0 表示键不过期。
type RedisOptions struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// Redis 封装 go-redis 客户端。
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedis 建立连接并 Ping 校验。
func OpenRedis(ctx context.Context, o RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", o.Host, o.Port),
		Password: o.Password,
		DB:       o.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s:%d: %w", o.Host, o.Port, err)
	}
	return &Redis{client: client, ttl: o.TTL}, nil
}

func (s *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Reset 仅删除本应用的缓存键，不清空整个 DB。
func (s *Redis) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, KeyData, KeyUser).Err(); err != nil {
		return fmt.Errorf("reset redis keys: %w", err)
	}
	return nil
}

func (s *Redis) Close() error { return s.client.Close() }
