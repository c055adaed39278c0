// cache.go

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// AccountKeyPrefix 账号缓存键前缀
const AccountKeyPrefix = "account:"

// CachedAccounts 在PostgreSQL存储前加一层Redis账号缓存，其余操作直接透传
type CachedAccounts struct {
	*Postgres
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedAccounts 创建带缓存的账号存储
func NewCachedAccounts(pg *Postgres, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedAccounts {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedAccounts{
		Postgres: pg,
		client:   client,
		ttl:      ttl,
		log:      log.With().Str("component", "account_cache").Logger(),
	}
}

// GetAccount 优先读缓存，未命中时查询数据库并回填，缓存故障时直接查库
func (c *CachedAccounts) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	key := accountKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var acc models.Account
		if err := json.Unmarshal(data, &acc); err == nil {
			return &acc, nil
		}
		c.log.Warn().Int64("user_id", id).Msg("账号缓存数据损坏")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Int64("user_id", id).Msg("读取账号缓存失败")
	}

	acc, err := c.Postgres.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(acc); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Int64("user_id", id).Msg("写入账号缓存失败")
		}
	}
	return acc, nil
}

// AddCoinsAndXp 更新数据库后删除缓存
func (c *CachedAccounts) AddCoinsAndXp(ctx context.Context, id int64, coins, experience int) (*models.Account, error) {
	acc, err := c.Postgres.AddCoinsAndXp(ctx, id, coins, experience)
	if err != nil {
		return nil, err
	}
	if err := c.client.Del(ctx, accountKey(id)).Err(); err != nil {
		c.log.Warn().Err(err).Int64("user_id", id).Msg("删除账号缓存失败")
	}
	return acc, nil
}

func accountKey(id int64) string {
	return fmt.Sprintf("%s%d", AccountKeyPrefix, id)
}
