// service.go

package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/clock"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// 奖励数值
const (
	KillCoins      = 50
	KillExperience = 100

	FirstPlaceCoins      = 500
	FirstPlaceExperience = 1000
	TopThreeCoins        = 250
	TopThreeExperience   = 500
	TopTenCoins          = 100
	TopTenExperience     = 200

	SurvivalCoinsPerMinute      = 10
	SurvivalExperiencePerMinute = 25
)

// AccountStore 账号与战绩的持久化存储
type AccountStore interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	AddCoinsAndXp(ctx context.Context, id int64, coins, experience int) (*models.Account, error)
	AppendStatsRow(ctx context.Context, delta models.StatsDelta) error
	AppendSessionRow(ctx context.Context, result *models.SessionResult) error
	GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	ListSessions(ctx context.Context, userID int64, limit, offset int) ([]models.SessionResult, int, error)
	LeaderboardRows(ctx context.Context, limit int) ([]models.LeaderboardRow, error)
}

// ErrNoLeaderboard 未配置排行榜
var ErrNoLeaderboard = errors.New("排行榜未启用")

// Service 对局战绩结算，会话只在内存中维护，结算结果交给后台协程持久化
type Service struct {
	store          AccountStore
	board          *Leaderboard
	clock          clock.Clock
	gameMode       models.GameMode
	persistTimeout time.Duration
	log            zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*models.Session
	closed   bool
	queue    chan *models.SessionResult
}

// NewService 创建结算服务
func NewService(store AccountStore, cfg config.StatsConfig, log zerolog.Logger) *Service {
	size := cfg.PersistQueueSize
	if size <= 0 {
		size = 256
	}
	mode := models.GameMode(cfg.GameMode)
	if mode == "" {
		mode = models.BattleRoyale
	}
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Service{
		store:          store,
		clock:          clock.New(),
		gameMode:       mode,
		persistTimeout: timeout,
		log:            log.With().Str("component", "stats").Logger(),
		sessions:       make(map[string]*models.Session),
		queue:          make(chan *models.SessionResult, size),
	}
}

// WithClock 替换时钟
func (s *Service) WithClock(c clock.Clock) *Service {
	s.clock = c
	return s
}

// WithLeaderboard 结算时同步更新排行榜
func (s *Service) WithLeaderboard(board *Leaderboard) *Service {
	s.board = board
	return s
}

// StartGameSession 为已登录玩家开始会话，已有会话时不做任何事
func (s *Service) StartGameSession(connID string, userID int64) {
	if userID <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[connID]; ok {
		return
	}
	s.sessions[connID] = &models.Session{
		ConnID:    connID,
		UserID:    userID,
		GameMode:  s.gameMode,
		StartTime: s.clock.Now(),
	}
}

// RecordKill 记录击杀，击杀者获得金币与经验
func (s *Service) RecordKill(killerConnID, victimConnID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if killer, ok := s.sessions[killerConnID]; ok {
		killer.Kills++
		killer.CoinsEarned += KillCoins
		killer.ExperienceEarned += KillExperience
	}
	if victim, ok := s.sessions[victimConnID]; ok {
		victim.Deaths++
	}
}

// RecordDamage 记录造成的伤害
func (s *Service) RecordDamage(connID string, amount int) {
	if amount <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[connID]; ok {
		sess.DamageDealt += amount
	}
}

// EndGameSession 结束会话并计算奖励，每个会话只结算一次
func (s *Service) EndGameSession(connID string, placement *int) (*models.SessionResult, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[connID]
	if ok {
		delete(s.sessions, connID)
	}
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	now := s.clock.Now()
	survival := int(now.Sub(sess.StartTime) / time.Second)
	if survival < 0 {
		survival = 0
	}
	sess.SurvivalTime = survival

	coins, experience := placementBonus(placement)
	minutes := survival / 60
	coins += minutes * SurvivalCoinsPerMinute
	experience += minutes * SurvivalExperiencePerMinute

	result := &models.SessionResult{
		UserID:           sess.UserID,
		GameMode:         sess.GameMode,
		Kills:            sess.Kills,
		Deaths:           sess.Deaths,
		DamageDealt:      sess.DamageDealt,
		SurvivalTime:     survival,
		CoinsEarned:      sess.CoinsEarned + coins,
		ExperienceEarned: sess.ExperienceEarned + experience,
		StartedAt:        sess.StartTime,
		EndedAt:          now,
	}
	if placement != nil {
		p := *placement
		result.Placement = &p
	}

	s.enqueue(result)
	return result, true
}

// ActiveSessions 当前进行中的会话数
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// placementBonus 排名奖励
func placementBonus(placement *int) (coins, experience int) {
	if placement == nil || *placement <= 0 {
		return 0, 0
	}
	switch p := *placement; {
	case p == 1:
		return FirstPlaceCoins, FirstPlaceExperience
	case p <= 3:
		return TopThreeCoins, TopThreeExperience
	case p <= 10:
		return TopTenCoins, TopTenExperience
	}
	return 0, 0
}

// enqueue 投递持久化任务，队列满或已关闭时丢弃
func (s *Service) enqueue(result *models.SessionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.Error().Int64("user_id", result.UserID).Msg("结算服务已关闭，丢弃对局结果")
		return
	}
	select {
	case s.queue <- result:
	default:
		s.log.Error().Int64("user_id", result.UserID).Msg("结算队列已满，丢弃对局结果")
	}
}

// Run 处理持久化队列，直到 Close 后队列耗尽
func (s *Service) Run(ctx context.Context) error {
	s.log.Info().Msg("战绩持久化协程启动")
	for result := range s.queue {
		if err := s.persist(ctx, result); err != nil {
			s.log.Error().Err(err).Int64("user_id", result.UserID).Msg("持久化对局结果失败")
		}
	}
	s.log.Info().Msg("战绩持久化协程退出")
	return nil
}

// Close 停止接收新的结算任务
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}

// persist 写入累计战绩、账号余额、对局记录和排行榜，单步失败不影响其余步骤
func (s *Service) persist(parent context.Context, result *models.SessionResult) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.persistTimeout)
	defer cancel()

	var errs []error
	if err := s.store.AppendStatsRow(ctx, models.DeltaFromResult(result)); err != nil {
		errs = append(errs, fmt.Errorf("更新累计战绩: %w", err))
	}

	// 余额在数据库内累加，不依赖可能过期的账号缓存
	var username string
	acc, err := s.store.AddCoinsAndXp(ctx, result.UserID, result.CoinsEarned, result.ExperienceEarned)
	if err != nil {
		errs = append(errs, fmt.Errorf("更新金币经验: %w", err))
	} else {
		username = acc.Username
		if acc.Level > models.LevelFor(acc.Experience-result.ExperienceEarned) {
			s.log.Info().Int64("user_id", acc.ID).Int("level", acc.Level).Msg("玩家升级")
		}
	}

	if err := s.store.AppendSessionRow(ctx, result); err != nil {
		errs = append(errs, fmt.Errorf("写入对局记录: %w", err))
	}

	if s.board != nil {
		if err := s.board.Record(ctx, result, username); err != nil {
			errs = append(errs, fmt.Errorf("更新排行榜: %w", err))
		}
	}

	if len(errs) == 0 {
		s.log.Debug().
			Int64("user_id", result.UserID).
			Int("coins", result.CoinsEarned).
			Int("experience", result.ExperienceEarned).
			Msg("对局结果已持久化")
	}
	return errors.Join(errs...)
}

// GetUserStats 查询账号概要与累计战绩
func (s *Service) GetUserStats(ctx context.Context, userID int64) (*models.UserStatsSummary, error) {
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	st, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	st.ComputeKD()
	return &models.UserStatsSummary{User: *acc, Stats: *st}, nil
}

// MatchHistory 分页查询对局记录，返回记录和总数
func (s *Service) MatchHistory(ctx context.Context, userID int64, limit, offset int) ([]models.SessionResult, int, error) {
	return s.store.ListSessions(ctx, userID, limit, offset)
}

// Leaderboard 查询排行榜
func (s *Service) Leaderboard(ctx context.Context, kind models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error) {
	if s.board == nil {
		return nil, ErrNoLeaderboard
	}
	return s.board.Top(ctx, kind, limit)
}

// RefreshLeaderboard 从数据库重建排行榜
func (s *Service) RefreshLeaderboard(ctx context.Context) (int, error) {
	if s.board == nil {
		return 0, ErrNoLeaderboard
	}
	return s.board.Refresh(ctx, s.store)
}
