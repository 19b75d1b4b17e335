package test

import (
	"context"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisImage is the Redis image used by the test containers. GETDEL requires
// Redis 6.2 or newer.
const RedisImage = "redis:7-alpine"

// StartRedisContainer starts a Redis container for testing. Its
// ConnectionString method returns a redis:// URL.
func StartRedisContainer(ctx context.Context) (*tcredis.RedisContainer, error) {
	return tcredis.Run(ctx, RedisImage)
}
