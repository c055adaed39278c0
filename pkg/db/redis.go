package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/rs/zerolog"
)

var (
	// RedisClient 全局Redis客户端实例
	RedisClient *redis.Client
)

// InitRedis 初始化Redis连接
func InitRedis(cfg config.RedisConfig, log zerolog.Logger) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("Redis连接失败: %w", err)
	}

	RedisClient = client
	log.Info().Str("addr", cfg.GetRedisAddr()).Msg("成功连接到Redis服务器")
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis(log zerolog.Logger) {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接时发生错误")
			return
		}
		log.Info().Msg("Redis连接已关闭")
	}
}
