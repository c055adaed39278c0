// db.go

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacl-coder/PixelStorm-Arena/pkg/db"
)

const schemaTimeout = 30 * time.Second

// newDBCmd 数据库管理命令
func newDBCmd() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "数据库管理",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "初始化数据库（创建表结构）",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context) error {
				return db.InitAllTables(ctx, db.DB)
			}, "数据库初始化完成")
		},
	})

	dbCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "重置数据库（删除所有表和数据）",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context) error {
				return db.DropAllTables(ctx, db.DB)
			}, "数据库重置完成")
		},
	})

	dbCmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "插入测试账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), seed, "测试数据初始化完成")
		},
	})

	var skipData bool
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "完整设置：重置、建表并插入测试数据",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context) error {
				if err := db.DropAllTables(ctx, db.DB); err != nil {
					return fmt.Errorf("重置数据库失败: %w", err)
				}
				if err := db.InitAllTables(ctx, db.DB); err != nil {
					return fmt.Errorf("初始化数据库失败: %w", err)
				}
				if skipData {
					return nil
				}
				return seed(ctx)
			}, "数据库设置完成")
		},
	}
	setupCmd.Flags().BoolVar(&skipData, "skip-data", false, "跳过测试数据初始化")
	dbCmd.AddCommand(setupCmd)

	return dbCmd
}

func seed(ctx context.Context) error {
	if _, err := db.SeedTestAccounts(ctx, db.DB); err != nil {
		return fmt.Errorf("初始化测试数据失败: %w", err)
	}
	return nil
}

// withDatabase 连接数据库执行操作
func withDatabase(parent context.Context, fn func(ctx context.Context) error, done string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	if err := db.InitPostgres(cfg.Database, log); err != nil {
		log.Error().Err(err).Msg("初始化PostgreSQL失败")
		return err
	}
	defer db.Close(log)

	ctx, cancel := context.WithTimeout(parent, schemaTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error().Err(err).Msg("数据库操作失败")
		return err
	}

	log.Info().Str("dbname", cfg.Database.DBName).Msg(done)
	return nil
}
