// main.go

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/pkg/logger"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd 创建根命令
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "pixelstorm",
		Short:        "PixelStorm 竞技场服务器",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "配置文件路径")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDBCmd())
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

// setup 加载配置并创建日志器
func setup() (*config.Config, zerolog.Logger, error) {
	if err := config.LoadConfig(configPath); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg := &config.GlobalConfig
	return cfg, logger.New(cfg.Server.LogLevel, cfg.Server.Debug), nil
}
