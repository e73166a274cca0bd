package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const refreshTokenKeyPrefix = "auth:refresh:used:"

// RedisRefreshTokenStore 记录已经用过的 refresh token（按 jti）
type RedisRefreshTokenStore struct {
	Redis *redis.Client
}

func NewRedisRefreshTokenStore(rdb *redis.Client) *RedisRefreshTokenStore {
	return &RedisRefreshTokenStore{Redis: rdb}
}

// Consume 第一次使用返回 true，之后的使用返回 false
func (s *RedisRefreshTokenStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.Redis.SetNX(ctx, refreshTokenKeyPrefix+jti, 1, ttl).Result()
}
