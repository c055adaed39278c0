// leaderboard.go

package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// 排行榜Redis键名
const (
	LeaderboardKillsKey  = "leaderboard:kills"
	LeaderboardWinsKey   = "leaderboard:wins"
	LeaderboardDamageKey = "leaderboard:damage"

	// 玩家信息键前缀
	PlayerInfoPrefix = "player:info:"

	// 玩家信息缓存时间
	PlayerInfoTTL = 24 * time.Hour

	// 重建排行榜时读取的最大行数
	RefreshLimit = 1000
)

// ErrUnknownLeaderboard 不支持的排行榜类型
var ErrUnknownLeaderboard = errors.New("未知的排行榜类型")

// playerInfo 缓存在Redis中的玩家信息
type playerInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// RowSource 排行榜重建的数据来源
type RowSource interface {
	LeaderboardRows(ctx context.Context, limit int) ([]models.LeaderboardRow, error)
}

// NameLookup 玩家信息缓存缺失时查询用户名
type NameLookup interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
}

// Leaderboard Redis排行榜
type Leaderboard struct {
	client *redis.Client
	names  NameLookup
	log    zerolog.Logger
}

// NewLeaderboard 创建Redis排行榜，names 可以为nil
func NewLeaderboard(client *redis.Client, names NameLookup, log zerolog.Logger) *Leaderboard {
	return &Leaderboard{
		client: client,
		names:  names,
		log:    log.With().Str("component", "leaderboard").Logger(),
	}
}

// Key 获取排行榜键名
func Key(kind models.LeaderboardType) (string, error) {
	switch kind {
	case models.LeaderboardKills:
		return LeaderboardKillsKey, nil
	case models.LeaderboardWins:
		return LeaderboardWinsKey, nil
	case models.LeaderboardDamage:
		return LeaderboardDamageKey, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLeaderboard, kind)
	}
}

// Record 把一局的结果累加到各排行榜
func (l *Leaderboard) Record(ctx context.Context, result *models.SessionResult, username string) error {
	member := strconv.FormatInt(result.UserID, 10)
	wins := 0.0
	if result.Won() {
		wins = 1
	}

	pipe := l.client.TxPipeline()
	pipe.ZIncrBy(ctx, LeaderboardKillsKey, float64(result.Kills), member)
	pipe.ZIncrBy(ctx, LeaderboardWinsKey, wins, member)
	pipe.ZIncrBy(ctx, LeaderboardDamageKey, float64(result.DamageDealt), member)
	if username != "" {
		if err := l.setPlayerInfo(ctx, pipe, playerInfo{UserID: result.UserID, Username: username}); err != nil {
			return err
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Top 获取排行榜前 limit 名
func (l *Leaderboard) Top(ctx context.Context, kind models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error) {
	key, err := Key(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.LeaderboardEntry{}, nil
	}

	// 按分数降序
	members, err := l.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(members))
	for i, member := range members {
		raw, _ := member.Member.(string)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		entries = append(entries, models.LeaderboardEntry{
			UserID:   userID,
			Username: l.username(ctx, userID),
			Score:    member.Score,
			Rank:     i + 1,
		})
	}
	return entries, nil
}

// Rank 获取玩家排名，从1开始，不在榜上时返回0
func (l *Leaderboard) Rank(ctx context.Context, kind models.LeaderboardType, userID int64) (int, error) {
	key, err := Key(kind)
	if err != nil {
		return 0, err
	}

	rank, err := l.client.ZRevRank(ctx, key, strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return int(rank) + 1, nil
}

// Refresh 清空并从数据库重建排行榜，返回写入的玩家数
func (l *Leaderboard) Refresh(ctx context.Context, src RowSource) (int, error) {
	rows, err := src.LeaderboardRows(ctx, RefreshLimit)
	if err != nil {
		return 0, fmt.Errorf("读取排行榜数据: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.Del(ctx, LeaderboardKillsKey, LeaderboardWinsKey, LeaderboardDamageKey)
	for _, row := range rows {
		member := strconv.FormatInt(row.UserID, 10)
		pipe.ZAdd(ctx, LeaderboardKillsKey, &redis.Z{Score: float64(row.Kills), Member: member})
		pipe.ZAdd(ctx, LeaderboardWinsKey, &redis.Z{Score: float64(row.Wins), Member: member})
		pipe.ZAdd(ctx, LeaderboardDamageKey, &redis.Z{Score: float64(row.Damage), Member: member})
		if err := l.setPlayerInfo(ctx, pipe, playerInfo{UserID: row.UserID, Username: row.Username}); err != nil {
			return 0, err
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("写入排行榜: %w", err)
	}

	l.log.Info().Int("players", len(rows)).Msg("排行榜已重建")
	return len(rows), nil
}

// username 先读缓存，缺失时查询账号并回填
func (l *Leaderboard) username(ctx context.Context, userID int64) string {
	data, err := l.client.Get(ctx, playerInfoKey(userID)).Bytes()
	if err == nil {
		var info playerInfo
		if err := json.Unmarshal(data, &info); err == nil {
			return info.Username
		}
	}
	if l.names == nil {
		return ""
	}

	acc, err := l.names.GetAccount(ctx, userID)
	if err != nil {
		l.log.Debug().Err(err).Int64("user_id", userID).Msg("查询排行榜玩家信息失败")
		return ""
	}
	if err := l.setPlayerInfo(ctx, l.client, playerInfo{UserID: userID, Username: acc.Username}); err != nil {
		l.log.Debug().Err(err).Int64("user_id", userID).Msg("缓存排行榜玩家信息失败")
	}
	return acc.Username
}

func (l *Leaderboard) setPlayerInfo(ctx context.Context, c redis.Cmdable, info playerInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.Set(ctx, playerInfoKey(info.UserID), data, PlayerInfoTTL).Err()
}

func playerInfoKey(userID int64) string {
	return fmt.Sprintf("%s%d", PlayerInfoPrefix, userID)
}
