// stats.go

package models

import (
	"time"
)

// GameMode 游戏模式
type GameMode string

const (
	// BattleRoyale 大逃杀模式
	BattleRoyale GameMode = "battle_royale"
)

// Account 外部账号存储中的账号记录
type Account struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Coins      int       `json:"coins"`
	Experience int       `json:"experience"`
	Level      int       `json:"level"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ExperiencePerLevel 每级所需经验
const ExperiencePerLevel = 100

// LevelFor 根据总经验计算等级
func LevelFor(experience int) int {
	if experience < 0 {
		experience = 0
	}
	return experience/ExperiencePerLevel + 1
}

// Session 已登录玩家在一局中的临时战绩
type Session struct {
	ConnID           string    `json:"conn_id"`
	UserID           int64     `json:"user_id"`
	GameMode         GameMode  `json:"game_mode"`
	StartTime        time.Time `json:"start_time"`
	Kills            int       `json:"kills"`
	Deaths           int       `json:"deaths"`
	DamageDealt      int       `json:"damage_dealt"`
	SurvivalTime     int       `json:"survival_time"` // 秒
	CoinsEarned      int       `json:"coins_earned"`
	ExperienceEarned int       `json:"experience_earned"`
}

// SessionResult 结算完成的对局结果，写入对局记录后不再修改
type SessionResult struct {
	UserID           int64     `json:"user_id"`
	GameMode         GameMode  `json:"game_mode"`
	Kills            int       `json:"kills"`
	Deaths           int       `json:"deaths"`
	DamageDealt      int       `json:"damage_dealt"`
	SurvivalTime     int       `json:"survival_time"` // 秒
	Placement        *int      `json:"placement,omitempty"`
	CoinsEarned      int       `json:"coins_earned"`
	ExperienceEarned int       `json:"experience_earned"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
}

// Won 是否获得第一名
func (r *SessionResult) Won() bool {
	return r.Placement != nil && *r.Placement == 1
}

// StatsDelta 累加到 user_stats 的增量
type StatsDelta struct {
	UserID      int64 `json:"user_id"`
	Kills       int   `json:"kills"`
	Deaths      int   `json:"deaths"`
	GamesPlayed int   `json:"games_played"`
	GamesWon    int   `json:"games_won"`
	Damage      int   `json:"total_damage"`
	TimePlayed  int   `json:"time_played"`
	CoinsEarned int   `json:"total_coins_earned"`
}

// DeltaFromResult 根据对局结果生成战绩增量
func DeltaFromResult(r *SessionResult) StatsDelta {
	won := 0
	if r.Won() {
		won = 1
	}
	return StatsDelta{
		UserID:      r.UserID,
		Kills:       r.Kills,
		Deaths:      r.Deaths,
		GamesPlayed: 1,
		GamesWon:    won,
		Damage:      r.DamageDealt,
		TimePlayed:  r.SurvivalTime,
		CoinsEarned: r.CoinsEarned,
	}
}

// UserStats 玩家累计战绩
type UserStats struct {
	Kills       int     `json:"kills"`
	Deaths      int     `json:"deaths"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	TotalDamage int     `json:"total_damage"`
	TimePlayed  int     `json:"time_played"`
	KD          float64 `json:"kd"`
}

// ComputeKD 计算击杀死亡比，无死亡时等于击杀数
func (s *UserStats) ComputeKD() {
	if s.Deaths > 0 {
		s.KD = float64(s.Kills) / float64(s.Deaths)
		return
	}
	s.KD = float64(s.Kills)
}

// UserStatsSummary 账号概要与累计战绩
type UserStatsSummary struct {
	User  Account   `json:"user"`
	Stats UserStats `json:"stats"`
}

// LeaderboardType 排行榜类型
type LeaderboardType string

const (
	// LeaderboardKills 击杀排行榜
	LeaderboardKills LeaderboardType = "kills"
	// LeaderboardWins 胜场排行榜
	LeaderboardWins LeaderboardType = "wins"
	// LeaderboardDamage 伤害排行榜
	LeaderboardDamage LeaderboardType = "damage"
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username,omitempty"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"` // 从1开始
}

// LeaderboardRow 重建排行榜用的累计数据
type LeaderboardRow struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Kills    int    `json:"kills"`
	Wins     int    `json:"wins"`
	Damage   int    `json:"damage"`
}
