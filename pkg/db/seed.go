// seed.go

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TestAccount 测试账号
type TestAccount struct {
	Username   string
	Email      string
	Level      int
	Experience int
	Coins      int
}

// TestAccounts 开发环境使用的测试账号，等级与经验保持 level = exp/100 + 1
var TestAccounts = []TestAccount{
	{Username: "testuser1", Email: "test1@pixelstorm.com", Level: 5, Experience: 450, Coins: 5000},
	{Username: "testuser2", Email: "test2@pixelstorm.com", Level: 10, Experience: 980, Coins: 12000},
	{Username: "testuser3", Email: "test3@pixelstorm.com", Level: 1, Experience: 0, Coins: 1000},
}

// SeedTestAccounts 插入测试账号，已存在测试账号时跳过，返回新建数量
func SeedTestAccounts(ctx context.Context, conn *sql.DB) (int, error) {
	var count int
	err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username LIKE 'test%'").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("查询测试账号失败: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, acc := range TestAccounts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, email, level, experience, coins)
			VALUES ($1, $2, $3, $4, $5)
		`, acc.Username, acc.Email, acc.Level, acc.Experience, acc.Coins)
		if err != nil {
			return 0, fmt.Errorf("创建测试账号 %s 失败: %w", acc.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(TestAccounts), nil
}
