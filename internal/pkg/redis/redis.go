package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Config holds the configuration required to connect to Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates the Redis client backing the replay store and pings
// it to ensure connectivity.
func NewClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
