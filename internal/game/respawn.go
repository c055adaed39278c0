package game

import (
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
	"github.com/jacl-coder/PixelStorm-Arena/internal/world"
)

// scheduleRespawn 在 RespawnDelay 后重生玩家，同一玩家只保留一个任务
func (e *Engine) scheduleRespawn(id string) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()

	if t, ok := e.respawns[id]; ok {
		t.Stop()
	}
	e.respawns[id] = e.scheduler.AfterFunc(RespawnDelay, func() {
		e.respawn(id)
	})
}

// cancelRespawn 取消待执行的重生
func (e *Engine) cancelRespawn(id string) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()

	if t, ok := e.respawns[id]; ok {
		t.Stop()
		delete(e.respawns, id)
	}
}

// stopRespawns 取消全部重生任务
func (e *Engine) stopRespawns() {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()

	for id, t := range e.respawns {
		t.Stop()
		delete(e.respawns, id)
	}
}

// PendingRespawns 待执行的重生任务数
func (e *Engine) PendingRespawns() int {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()
	return len(e.respawns)
}

// respawn 定时器回调，玩家已离开或已存活时什么都不做
func (e *Engine) respawn(id string) {
	e.timersMu.Lock()
	delete(e.respawns, id)
	e.timersMu.Unlock()

	spawn := e.spawnPoint()
	now := e.clock.Now()

	var respawned *models.Player
	e.world.Update(func(tx *world.Tx) {
		p := tx.Player(id)
		if p == nil || p.Alive {
			return
		}
		p.Health = MaxHealth
		p.Alive = true
		p.Position = spawn
		p.InvulnerableUntil = now.Add(InvulnerableDuration)
		respawned = p.Clone()
	})
	if respawned == nil {
		e.log.Debug().Str("conn_id", id).Msg("重生目标已不存在")
		return
	}

	e.broadcaster.Broadcast(protocol.PlayerRespawned{
		ID:     id,
		Player: protocol.ConvertPlayer(respawned),
	}, "")
	e.log.Debug().Str("conn_id", id).Msg("玩家重生")
}
