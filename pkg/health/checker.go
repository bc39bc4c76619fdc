package health

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/giftcards/pkg/common"
)

// DatabaseChecker returns a readiness probe for the PostgreSQL pool
func DatabaseChecker(pool *pgxpool.Pool) common.CheckFunc {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

// RedisChecker returns a readiness probe for Redis
func RedisChecker(client redis.UniversalClient) common.CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
