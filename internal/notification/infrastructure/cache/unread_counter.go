// Package cache 未读数 redis 缓存实现。
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/visabackoffice/internal/notification/domain"
)

const unreadCountTTL = 5 * time.Minute

// RedisUnreadCounter 未读数 redis 缓存
type RedisUnreadCounter struct {
	client redis.UniversalClient
}

// NewRedisUnreadCounter 创建未读数缓存实例。
func NewRedisUnreadCounter(client redis.UniversalClient) domain.UnreadCounter {
	return &RedisUnreadCounter{client: client}
}

func key(recipient string) string {
	return fmt.Sprintf("notification:unread:%s", recipient)
}

func (c *RedisUnreadCounter) Get(ctx context.Context, recipient string) (int64, bool, error) {
	val, err := c.client.Get(ctx, key(recipient)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (c *RedisUnreadCounter) Set(ctx context.Context, recipient string, count int64) error {
	return c.client.Set(ctx, key(recipient), count, unreadCountTTL).Err()
}

func (c *RedisUnreadCounter) Invalidate(ctx context.Context, recipient string) error {
	return c.client.Del(ctx, key(recipient)).Err()
}
