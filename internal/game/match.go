package game

import (
	"context"
	"sort"
	"time"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
	"github.com/jacl-coder/PixelStorm-Arena/internal/world"
)

// Run 按固定频率执行tick，ctx 结束时结算当前对局并返回
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	e.sessionMu.Lock()
	e.matchStart = e.clock.Now()
	e.sessionMu.Unlock()

	e.running.Store(true)
	e.log.Info().Dur("tick_interval", e.tickInterval).Dur("match_duration", e.matchDuration).Msg("游戏循环启动")

	for {
		select {
		case <-ctx.Done():
			e.finishMatch(false)
			e.stopRespawns()
			e.settleOnce.Do(func() { close(e.settled) })
			e.running.Store(false)
			e.log.Info().Msg("游戏循环已停止")
			return nil
		case <-ticker.C:
			e.Tick()
			if e.matchDuration > 0 && e.matchElapsed() >= e.matchDuration {
				e.EndMatch()
			}
		}
	}
}

// Running 游戏循环是否在运行
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Settled 游戏循环停止且最后一局结算完成后关闭
func (e *Engine) Settled() <-chan struct{} {
	return e.settled
}

// EndMatch 结束当前对局：按得分排名结算所有会话，重置得分并开始新一局
func (e *Engine) EndMatch() {
	e.finishMatch(true)
}

func (e *Engine) matchElapsed() time.Duration {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()
	return e.clock.Now().Sub(e.matchStart)
}

// finishMatch 得分降序排名，同分按连接ID升序
func (e *Engine) finishMatch(restart bool) {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	var standings []*models.Player
	e.world.Update(func(tx *world.Tx) {
		for _, p := range tx.Players() {
			standings = append(standings, p.Clone())
			if restart {
				p.Score = 0
			}
		}
	})
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})

	settled := 0
	for i, p := range standings {
		if p.IsGuest() {
			continue
		}
		placement := i + 1
		if result, ok := e.accounting.EndGameSession(p.ID, &placement); ok {
			e.broadcaster.Send(p.ID, protocol.ConvertSessionResult(result))
			settled++
		}
		if restart {
			e.accounting.StartGameSession(p.ID, p.UserID)
		}
	}
	e.matchStart = e.clock.Now()

	e.log.Info().Int("players", len(standings)).Int("settled", settled).Bool("restart", restart).Msg("对局结算")
}
