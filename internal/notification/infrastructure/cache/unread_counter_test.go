package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisUnreadCounterAcceptsUniversalClient(t *testing.T) {
	// cache.RedisCache.GetClient() 返回的是 UniversalClient 接口。
	var client redis.UniversalClient = redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	counter := NewRedisUnreadCounter(client)
	require.NotNil(t, counter)
}

func TestUnreadCountKey(t *testing.T) {
	assert.Equal(t, "notification:unread:user-1", key("user-1"))
	assert.Equal(t, "notification:unread:application:7", key("application:7"))
}
