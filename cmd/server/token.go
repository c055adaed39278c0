// token.go

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
)

// newTokenCmd 签发开发用的握手令牌
func newTokenCmd() *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "为指定账号签发握手令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user 必须为正数")
			}
			cfg, _, err := setup()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenVerifier(cfg.Auth.JWTSecret).Sign(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "账号ID")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "有效期，0表示不过期")
	return cmd
}
