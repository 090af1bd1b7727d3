package config

import (
	"sync"
	"time"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

// RedisConfig 队列与任务状态存储配置
type RedisConfig struct {
	Addr           string
	DB             int
	Concurrency    int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadEnv()

		redisConfig = &RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			DB:             getEnvInt("REDIS_DB", 0),
			Concurrency:    getEnvInt("WORKER_CONCURRENCY", 4),
			MaxRetries:     getEnvInt("QUEUE_MAX_RETRIES", 3),
			RetryDelay:     getEnvDuration("QUEUE_RETRY_DELAY", time.Minute),
			ProcessTimeout: getEnvDuration("QUEUE_PROCESS_TIMEOUT", 30*time.Minute),
		}
	})
	return redisConfig
}
