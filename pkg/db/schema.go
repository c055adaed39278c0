// schema.go

package db

import (
	"context"
	"database/sql"
)

// 统一的数据库表结构定义

// CreateAllTablesSQL 创建所有表的SQL语句
const CreateAllTablesSQL = `
-- 账号表（注册、登录由外部服务负责，这里只读写金币与经验）
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    email VARCHAR(100) UNIQUE,
    password_hash VARCHAR(255),
    coins INT NOT NULL DEFAULT 1000,
    experience INT NOT NULL DEFAULT 0,
    level INT NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- 累计战绩表
CREATE TABLE IF NOT EXISTS user_stats (
    id SERIAL PRIMARY KEY,
    user_id INT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    kills INT NOT NULL DEFAULT 0,
    deaths INT NOT NULL DEFAULT 0,
    games_played INT NOT NULL DEFAULT 0,
    games_won INT NOT NULL DEFAULT 0,
    total_damage INT NOT NULL DEFAULT 0,
    time_played INT NOT NULL DEFAULT 0, -- 秒
    total_coins_earned INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- 游戏模式表
CREATE TABLE IF NOT EXISTS game_modes (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100) UNIQUE NOT NULL,
    max_players INT NOT NULL,
    min_players INT NOT NULL,
    map_size INT NOT NULL DEFAULT 2000,
    respawn_enabled BOOLEAN NOT NULL DEFAULT true
);

INSERT INTO game_modes (name, max_players, min_players)
VALUES ('battle_royale', 64, 1)
ON CONFLICT (name) DO NOTHING;

-- 对局记录表（只追加）
CREATE TABLE IF NOT EXISTS game_sessions (
    id SERIAL PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    game_mode_id INT NOT NULL REFERENCES game_modes(id),
    kills INT NOT NULL DEFAULT 0,
    deaths INT NOT NULL DEFAULT 0,
    damage_dealt INT NOT NULL DEFAULT 0,
    survival_time INT NOT NULL DEFAULT 0, -- 秒
    placement INT,
    coins_earned INT NOT NULL DEFAULT 0,
    experience_earned INT NOT NULL DEFAULT 0,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    ended_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_game_sessions_user_id ON game_sessions(user_id);
`

// DropAllTablesSQL 删除所有表的SQL语句
const DropAllTablesSQL = `
DROP TABLE IF EXISTS game_sessions CASCADE;
DROP TABLE IF EXISTS game_modes CASCADE;
DROP TABLE IF EXISTS user_stats CASCADE;
DROP TABLE IF EXISTS users CASCADE;
`

// InitAllTables 初始化所有数据库表
func InitAllTables(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, CreateAllTablesSQL)
	return err
}

// DropAllTables 删除所有数据库表
func DropAllTables(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, DropAllTablesSQL)
	return err
}
