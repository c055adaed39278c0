package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

var (
	// DB 全局数据库连接实例
	DB *sql.DB
)

// InitPostgres 初始化PostgreSQL连接
func InitPostgres(cfg config.DatabaseConfig, log zerolog.Logger) error {
	conn, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	conn.SetMaxOpenConns(16)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(30 * time.Minute)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("数据库Ping失败: %w", err)
	}

	DB = conn
	log.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("成功连接到PostgreSQL数据库")
	return nil
}

// Close 关闭数据库连接
func Close(log zerolog.Logger) {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("关闭数据库连接时发生错误")
			return
		}
		log.Info().Msg("数据库连接已关闭")
	}
}
