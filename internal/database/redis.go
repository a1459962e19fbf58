package database

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ryudhis/nuxt-chat-bot/internal/config"
)

// InitRedis initializes the Redis client used for the message history cache.
// Returns nil when Redis is unreachable; callers treat a nil client as
// "caching disabled".
func InitRedis(config *config.Config) *redis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisAddr := config.GetRedisAddr()

	log.Printf("Connecting to Redis at %s...", redisAddr)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Username: config.RedisUsername,
		Password: config.RedisPassword,
	})

	// Try to ping Redis
	_, err := redisClient.Ping(ctx).Result()
	if err != nil {
		log.Printf("⚠️  Warning: Failed to connect to Redis: %v", err)
		log.Println("⚠️  Application will continue without Redis caching")
		return nil
	}

	log.Println("✅ Successfully connected to Redis")
	return redisClient
}
