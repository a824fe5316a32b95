package config

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	RedisClient redis.UniversalClient
	redisOnce   sync.Once
	redisErr    error
)

func InitRedis(cfg RedisConfig) (redis.UniversalClient, error) {
	redisOnce.Do(func() {
		RedisClient, redisErr = connectRedis(cfg.Addr)
	})
	return RedisClient, redisErr
}

func connectRedis(val string) (redis.UniversalClient, error) {
	if val == "" {
		return nil, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}

	var client *redis.Client
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: val})
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
