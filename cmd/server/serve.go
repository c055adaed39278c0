// serve.go

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
	"github.com/jacl-coder/PixelStorm-Arena/internal/game"
	"github.com/jacl-coder/PixelStorm-Arena/internal/gateway"
	"github.com/jacl-coder/PixelStorm-Arena/internal/stats"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
	"github.com/jacl-coder/PixelStorm-Arena/internal/world"
	"github.com/jacl-coder/PixelStorm-Arena/pkg/db"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动竞技场服务器",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			// 初始化数据库连接
			if err := db.InitPostgres(cfg.Database, log); err != nil {
				log.Error().Err(err).Msg("初始化PostgreSQL失败")
				return err
			}
			defer db.Close(log)

			// 初始化Redis连接
			if err := db.InitRedis(cfg.Redis, log); err != nil {
				log.Error().Err(err).Msg("初始化Redis失败")
				return err
			}
			defer db.CloseRedis(log)

			accounts := store.NewCachedAccounts(store.NewPostgres(db.DB), db.RedisClient, cfg.Redis.AccountCacheTTL, log)
			board := stats.NewLeaderboard(db.RedisClient, accounts, log)
			statsService := stats.NewService(accounts, cfg.Stats, log).WithLeaderboard(board)

			hub := game.NewHub(log)
			engine := game.NewEngine(world.NewStore(), hub, log).
				WithAccounting(statsService).
				WithAccounts(accounts).
				WithTickRate(cfg.Server.TickRate).
				WithMatchDuration(cfg.Server.MatchDuration)

			var verifier game.TokenVerifier
			if cfg.Auth.JWTSecret != "" {
				verifier = auth.NewTokenVerifier(cfg.Auth.JWTSecret)
			}
			server := game.NewGameServer(cfg, engine, hub, verifier, log)

			gw := gateway.NewGateway(cfg, statsService, log)
			server.Mount(gateway.Prefix, gw)
			gw.Start()
			defer gw.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.ListenAndServe(gctx)
			})
			g.Go(func() error {
				// 引擎退出前会结算当前对局，之后才关闭结算队列
				defer statsService.Close()
				return engine.Run(gctx)
			})
			g.Go(func() error {
				return statsService.Run(context.WithoutCancel(gctx))
			})

			err = g.Wait()
			if err != nil {
				log.Error().Err(err).Msg("服务器异常退出")
				return err
			}
			log.Info().Msg("服务器已安全关闭")
			return nil
		},
	}
}
