// postgres.go

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// ErrAccountNotFound 账号不存在
var ErrAccountNotFound = errors.New("账号不存在")

// Postgres 基于PostgreSQL的账号与战绩存储
type Postgres struct {
	db *sql.DB
}

// NewPostgres 创建PostgreSQL存储
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// GetAccount 查询账号
func (p *Postgres) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, username, coins, experience, level, updated_at
		FROM users
		WHERE id = $1
	`

	var acc models.Account
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&acc.ID, &acc.Username, &acc.Coins, &acc.Experience, &acc.Level, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("查询账号失败: %w", err)
	}
	return &acc, nil
}

// AddCoinsAndXp 在数据库内累加金币和经验并重算等级，返回更新后的账号
func (p *Postgres) AddCoinsAndXp(ctx context.Context, id int64, coins, experience int) (*models.Account, error) {
	query := `
		UPDATE users
		SET coins = coins + $2,
			experience = experience + $3,
			level = (experience + $3) / $4 + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING id, username, coins, experience, level, updated_at
	`

	var acc models.Account
	err := p.db.QueryRowContext(ctx, query, id, coins, experience, models.ExperiencePerLevel).Scan(
		&acc.ID, &acc.Username, &acc.Coins, &acc.Experience, &acc.Level, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("更新金币经验失败: %w", err)
	}
	return &acc, nil
}

// AppendStatsRow 把一局的增量累加到 user_stats，不存在时插入
func (p *Postgres) AppendStatsRow(ctx context.Context, d models.StatsDelta) error {
	query := `
		INSERT INTO user_stats (user_id, kills, deaths, games_played, games_won, total_damage, time_played, total_coins_earned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			kills = user_stats.kills + EXCLUDED.kills,
			deaths = user_stats.deaths + EXCLUDED.deaths,
			games_played = user_stats.games_played + EXCLUDED.games_played,
			games_won = user_stats.games_won + EXCLUDED.games_won,
			total_damage = user_stats.total_damage + EXCLUDED.total_damage,
			time_played = user_stats.time_played + EXCLUDED.time_played,
			total_coins_earned = user_stats.total_coins_earned + EXCLUDED.total_coins_earned,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := p.db.ExecContext(ctx, query,
		d.UserID, d.Kills, d.Deaths, d.GamesPlayed, d.GamesWon, d.Damage, d.TimePlayed, d.CoinsEarned,
	)
	if err != nil {
		return fmt.Errorf("更新累计战绩失败: %w", err)
	}
	return nil
}

// AppendSessionRow 追加一条对局记录
func (p *Postgres) AppendSessionRow(ctx context.Context, r *models.SessionResult) error {
	query := `
		INSERT INTO game_sessions (user_id, game_mode_id, kills, deaths, damage_dealt, survival_time,
			placement, coins_earned, experience_earned, started_at, ended_at)
		VALUES ($1, (SELECT id FROM game_modes WHERE name = $2), $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var placement sql.NullInt64
	if r.Placement != nil {
		placement = sql.NullInt64{Int64: int64(*r.Placement), Valid: true}
	}

	_, err := p.db.ExecContext(ctx, query,
		r.UserID, string(r.GameMode), r.Kills, r.Deaths, r.DamageDealt, r.SurvivalTime,
		placement, r.CoinsEarned, r.ExperienceEarned, r.StartedAt, r.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("写入对局记录失败: %w", err)
	}
	return nil
}

// GetUserStats 查询累计战绩，没有记录时返回零值
func (p *Postgres) GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	query := `
		SELECT kills, deaths, games_played, games_won, total_damage, time_played
		FROM user_stats
		WHERE user_id = $1
	`

	var st models.UserStats
	err := p.db.QueryRowContext(ctx, query, userID).Scan(
		&st.Kills, &st.Deaths, &st.GamesPlayed, &st.GamesWon, &st.TotalDamage, &st.TimePlayed,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("查询累计战绩失败: %w", err)
	}
	return &st, nil
}

// ListSessions 按时间倒序分页查询对局记录，同时返回总数
func (p *Postgres) ListSessions(ctx context.Context, userID int64, limit, offset int) ([]models.SessionResult, int, error) {
	// 先查询总数
	var total int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_sessions WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("查询对局总数失败: %w", err)
	}

	query := `
		SELECT gs.user_id, gm.name, gs.kills, gs.deaths, gs.damage_dealt, gs.survival_time,
		       gs.placement, gs.coins_earned, gs.experience_earned, gs.started_at, gs.ended_at
		FROM game_sessions gs
		JOIN game_modes gm ON gm.id = gs.game_mode_id
		WHERE gs.user_id = $1
		ORDER BY gs.started_at DESC, gs.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("查询对局记录失败: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.SessionResult, 0, limit)
	for rows.Next() {
		var (
			r         models.SessionResult
			mode      string
			placement sql.NullInt64
			endedAt   sql.NullTime
		)
		err := rows.Scan(
			&r.UserID, &mode, &r.Kills, &r.Deaths, &r.DamageDealt, &r.SurvivalTime,
			&placement, &r.CoinsEarned, &r.ExperienceEarned, &r.StartedAt, &endedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("扫描对局记录失败: %w", err)
		}
		r.GameMode = models.GameMode(mode)
		if placement.Valid {
			v := int(placement.Int64)
			r.Placement = &v
		}
		if endedAt.Valid {
			r.EndedAt = endedAt.Time
		}
		sessions = append(sessions, r)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历对局记录失败: %w", err)
	}

	return sessions, total, nil
}

// LeaderboardRows 读取重建排行榜用的累计数据
func (p *Postgres) LeaderboardRows(ctx context.Context, limit int) ([]models.LeaderboardRow, error) {
	query := `
		SELECT u.id, u.username, s.kills, s.games_won, s.total_damage
		FROM user_stats s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.kills DESC
		LIMIT $1
	`

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("查询排行榜数据失败: %w", err)
	}
	defer rows.Close()

	var out []models.LeaderboardRow
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Kills, &row.Wins, &row.Damage); err != nil {
			return nil, fmt.Errorf("扫描排行榜数据失败: %w", err)
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历排行榜数据失败: %w", err)
	}
	return out, nil
}
