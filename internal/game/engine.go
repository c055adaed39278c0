// engine.go

package game

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/clock"
	"github.com/jacl-coder/PixelStorm-Arena/internal/dependencies/random"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
	"github.com/jacl-coder/PixelStorm-Arena/internal/world"
)

// Broadcaster 将消息投递给在线连接
type Broadcaster interface {
	// Send 发给单个连接
	Send(connID string, msg protocol.Outbound)
	// Broadcast 发给除 exceptID 外的所有连接，exceptID 为空时发给所有人
	Broadcast(msg protocol.Outbound, exceptID string)
}

// Accounting 对局战绩结算
type Accounting interface {
	StartGameSession(connID string, userID int64)
	RecordKill(killerConnID, victimConnID string)
	RecordDamage(connID string, amount int)
	EndGameSession(connID string, placement *int) (*models.SessionResult, bool)
}

// AccountLookup 账号查询
type AccountLookup interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
}

// Identity 握手阶段确定的连接身份，UserID 为0表示游客
type Identity struct {
	UserID int64
}

// Engine 权威游戏逻辑：校验意图、推进tick、处理淘汰与重生
type Engine struct {
	world       *world.Store
	broadcaster Broadcaster
	accounting  Accounting
	accounts    AccountLookup
	clock       clock.Clock
	random      random.Random
	scheduler   clock.Scheduler
	log         zerolog.Logger

	tickInterval  time.Duration
	matchDuration time.Duration

	// sessionMu 串行化会话的开始与结束，避免断线与分局结算交错
	sessionMu  sync.Mutex
	matchStart time.Time

	timersMu sync.Mutex
	respawns map[string]clock.Timer

	// running 在 Run 期间为真，settled 在最后一局结算完成后关闭
	running    atomic.Bool
	settled    chan struct{}
	settleOnce sync.Once
}

// NewEngine 创建游戏引擎
func NewEngine(store *world.Store, broadcaster Broadcaster, log zerolog.Logger) *Engine {
	return &Engine{
		world:        store,
		broadcaster:  broadcaster,
		accounting:   nopAccounting{},
		clock:        clock.New(),
		random:       random.New(),
		scheduler:    clock.NewScheduler(),
		log:          log.With().Str("component", "engine").Logger(),
		tickInterval: time.Second / DefaultTickRate,
		respawns:     make(map[string]clock.Timer),
		settled:      make(chan struct{}),
	}
}

// WithClock 替换时间来源
func (e *Engine) WithClock(c clock.Clock) *Engine {
	e.clock = c
	return e
}

// WithRandom 替换随机数来源
func (e *Engine) WithRandom(r random.Random) *Engine {
	e.random = r
	return e
}

// WithScheduler 替换重生调度器
func (e *Engine) WithScheduler(s clock.Scheduler) *Engine {
	e.scheduler = s
	return e
}

// WithAccounting 设置战绩结算
func (e *Engine) WithAccounting(a Accounting) *Engine {
	e.accounting = a
	return e
}

// WithAccounts 设置账号查询
func (e *Engine) WithAccounts(a AccountLookup) *Engine {
	e.accounts = a
	return e
}

// WithTickRate 设置每秒tick数
func (e *Engine) WithTickRate(rate int) *Engine {
	if rate > 0 {
		e.tickInterval = time.Second / time.Duration(rate)
	}
	return e
}

// WithMatchDuration 设置每局时长，0表示不分局
func (e *Engine) WithMatchDuration(d time.Duration) *Engine {
	e.matchDuration = d
	return e
}

// Join 玩家加入，重复加入返回已有玩家且不产生任何广播
func (e *Engine) Join(ctx context.Context, connID string, ident Identity, name string) *models.Player {
	if existing, ok := e.world.Get(connID); ok {
		return existing
	}

	player := &models.Player{
		ID:     connID,
		Radius: PlayerRadius,
		Health: MaxHealth,
		Alive:  true,
		Level:  1,
	}

	if ident.UserID > 0 {
		player.UserID = ident.UserID
		if e.accounts != nil {
			account, err := e.accounts.GetAccount(ctx, ident.UserID)
			if err != nil {
				// 查不到账号时按游客处理，不记录战绩
				e.log.Warn().Err(err).Str("conn_id", connID).Int64("user_id", ident.UserID).Msg("获取账号失败，按游客加入")
				player.UserID = 0
			} else {
				player.Name = account.Username
				player.Coins = account.Coins
				if account.Level > 0 {
					player.Level = account.Level
				}
			}
		}
	}
	if player.Name == "" {
		player.Name = name
	}
	if player.Name == "" {
		player.Name = fmt.Sprintf("Guest-%04d", e.random.Intn(GuestNameSuffixRange))
	}
	player.Position = e.spawnPoint()

	e.sessionMu.Lock()
	created := false
	e.world.Update(func(tx *world.Tx) {
		if existing := tx.Player(connID); existing != nil {
			player = existing.Clone()
			return
		}
		tx.Put(player.Clone())
		created = true
	})
	if created && !player.IsGuest() {
		e.accounting.StartGameSession(connID, player.UserID)
	}
	e.sessionMu.Unlock()

	if !created {
		return player
	}

	e.broadcaster.Send(connID, e.Snapshot(connID))
	e.broadcaster.Broadcast(protocol.PlayerJoined{Player: protocol.ConvertPlayer(player)}, connID)

	e.log.Info().
		Str("conn_id", connID).
		Int64("user_id", player.UserID).
		Str("name", player.Name).
		Float64("x", player.Position.X).
		Float64("y", player.Position.Y).
		Msg("玩家加入")
	return player
}

// Move 移动意图，坐标被限制在世界边界内，速度原样保存
func (e *Engine) Move(connID string, x, y, speed float64) (*models.Player, error) {
	if !finite(x, y, speed) {
		return nil, ErrInvalidPosition
	}

	var (
		updated *models.Player
		err     error
	)
	e.world.Update(func(tx *world.Tx) {
		p := tx.Player(connID)
		if p == nil {
			err = ErrPlayerNotFound
			return
		}
		if !p.Alive {
			err = ErrPlayerDead
			return
		}
		p.Position = ClampPosition(models.Vector2D{X: x, Y: y})
		p.Speed = speed
		updated = p.Clone()
	})
	if err != nil {
		return nil, err
	}

	e.broadcaster.Broadcast(protocol.PlayerMoved{
		ID:    updated.ID,
		X:     updated.Position.X,
		Y:     updated.Position.Y,
		Speed: updated.Speed,
	}, connID)
	return updated, nil
}

// Shoot 射击意图，投射物从服务器记录的玩家位置发出
func (e *Engine) Shoot(connID string, dirX, dirY float64) (*models.Projectile, error) {
	direction, ok := models.Vector2D{X: dirX, Y: dirY}.Normalize()
	if !ok {
		return nil, ErrInvalidDirection
	}

	now := e.clock.Now()
	var (
		projectile *models.Projectile
		err        error
	)
	e.world.Update(func(tx *world.Tx) {
		p := tx.Player(connID)
		if p == nil {
			err = ErrPlayerNotFound
			return
		}
		if !p.Alive {
			err = ErrPlayerDead
			return
		}
		if !p.LastShotAt.IsZero() && now.Sub(p.LastShotAt) < ShootCooldown {
			err = ErrShootCooldown
			return
		}

		p.LastShotAt = now
		projectile = &models.Projectile{
			ID:        uuid.NewString(),
			OwnerID:   connID,
			Position:  p.Position,
			Direction: direction,
			Speed:     ProjectileSpeed,
			CreatedAt: now,
		}
		tx.PushProjectile(projectile)
		projectile = projectile.Clone()
	})
	if err != nil {
		return nil, err
	}

	e.broadcaster.Broadcast(protocol.ProjectileCreated{Projectile: protocol.ConvertProjectile(projectile)}, "")
	return projectile, nil
}

// Disconnect 连接断开：移除玩家及其投射物，取消重生并结算会话
func (e *Engine) Disconnect(connID string) *models.SessionResult {
	e.cancelRespawn(connID)

	e.sessionMu.Lock()
	player, projectiles := e.world.Remove(connID)
	result, ok := e.accounting.EndGameSession(connID, nil)
	e.sessionMu.Unlock()

	if ok {
		e.broadcaster.Send(connID, protocol.ConvertSessionResult(result))
	}
	if player == nil {
		return result
	}

	e.broadcaster.Broadcast(protocol.PlayerDisconnected{ID: connID}, connID)
	e.log.Info().
		Str("conn_id", connID).
		Int64("user_id", player.UserID).
		Int("projectiles", len(projectiles)).
		Msg("玩家离开")
	return result
}

// Snapshot 当前世界快照
func (e *Engine) Snapshot(connID string) protocol.WorldSnapshot {
	snapshot := protocol.WorldSnapshot{PlayerID: connID}
	e.world.View(func(tx *world.Tx) {
		snapshot.Players = protocol.ConvertPlayers(tx.Players())
		snapshot.Projectiles = protocol.ConvertProjectiles(tx.Projectiles())
	})
	return snapshot
}

// PlayerCount 在线玩家数
func (e *Engine) PlayerCount() int {
	return e.world.PlayerCount()
}

// spawnPoint 在 [MinCoord, MaxCoord] 内均匀随机出生点
func (e *Engine) spawnPoint() models.Vector2D {
	span := MaxCoord - MinCoord
	return models.Vector2D{
		X: MinCoord + e.random.Float64()*span,
		Y: MinCoord + e.random.Float64()*span,
	}
}

type nopAccounting struct{}

func (nopAccounting) StartGameSession(string, int64) {}
func (nopAccounting) RecordKill(string, string)      {}
func (nopAccounting) RecordDamage(string, int)       {}
func (nopAccounting) EndGameSession(string, *int) (*models.SessionResult, bool) {
	return nil, false
}
