package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
)

// RDB is nil when Redis is not configured; publishers must nil-check.
var RDB *redis.Client

func ConnectRedis(cfg *config.Config) {
	if cfg.RedisURL == "" {
		log.Info().Msg("redis not configured, cross-device sync disabled")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:         cfg.RedisURL,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisURL).Msg("redis unreachable, cross-device sync disabled")
		RDB = nil
		return
	}

	log.Info().Msg("redis connected")
}
