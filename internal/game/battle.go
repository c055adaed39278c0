package game

import (
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
	"github.com/jacl-coder/PixelStorm-Arena/internal/world"
)

// hitEvent 一次命中，锁内收集、解锁后结算与广播
type hitEvent struct {
	projectileID string
	victimID     string
	victimName   string
	shooterID    string
	shooterName  string
	health       int
	lethal       bool
}

// Tick 推进一帧：移动投射物、检测碰撞、结算伤害、移除失效投射物
func (e *Engine) Tick() {
	now := e.clock.Now()

	var (
		events      []hitEvent
		projectiles []protocol.ProjectileInfo
	)
	e.world.Update(func(tx *world.Tx) {
		// 按ID升序遍历，同一帧多名玩家重叠时ID最小者被命中
		players := tx.Players()
		hit := make(map[string]struct{})

		for _, proj := range tx.Projectiles() {
			proj.Advance()

			for _, p := range players {
				if p.ID == proj.OwnerID || !p.Alive || p.IsInvulnerable(now) {
					continue
				}
				if p.Position.Distance(proj.Position) >= p.Radius {
					continue
				}

				hit[proj.ID] = struct{}{}
				p.Health -= HitDamage
				ev := hitEvent{
					projectileID: proj.ID,
					victimID:     p.ID,
					victimName:   p.Name,
					shooterID:    proj.OwnerID,
				}
				shooter := tx.Player(proj.OwnerID)
				if shooter != nil {
					ev.shooterName = shooter.Name
				}

				if p.Health <= 0 {
					p.Health = 0
					p.Alive = false
					ev.lethal = true
					if shooter != nil {
						shooter.Score += KillScore
					}
				}
				ev.health = p.Health
				events = append(events, ev)
				break
			}
		}

		tx.RemoveProjectiles(func(p *models.Projectile) bool {
			if _, ok := hit[p.ID]; ok {
				return true
			}
			return !inWorld(p.Position)
		})
		projectiles = protocol.ConvertProjectiles(tx.Projectiles())
	})

	for _, ev := range events {
		e.accounting.RecordDamage(ev.shooterID, HitDamage)
		e.broadcaster.Broadcast(protocol.PlayerHit{
			PlayerID:  ev.victimID,
			Damage:    HitDamage,
			Health:    ev.health,
			ShooterID: ev.shooterID,
		}, "")

		if !ev.lethal {
			continue
		}
		e.accounting.RecordKill(ev.shooterID, ev.victimID)
		e.broadcaster.Broadcast(protocol.PlayerEliminated{
			EliminatedID:   ev.victimID,
			EliminatedName: ev.victimName,
			ShooterID:      ev.shooterID,
			ShooterName:    ev.shooterName,
			Health:         0,
		}, "")
		e.scheduleRespawn(ev.victimID)

		e.log.Info().
			Str("victim_id", ev.victimID).
			Str("shooter_id", ev.shooterID).
			Str("projectile_id", ev.projectileID).
			Msg("玩家被淘汰")
	}

	e.broadcaster.Broadcast(protocol.ProjectilesUpdate{Projectiles: projectiles}, "")
}
