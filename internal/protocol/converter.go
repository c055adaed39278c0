package protocol

import (
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// ConvertPlayer 将玩家模型转换为协议消息
func ConvertPlayer(p *models.Player) PlayerInfo {
	info := PlayerInfo{
		ID:     p.ID,
		Name:   p.Name,
		X:      p.Position.X,
		Y:      p.Position.Y,
		Radius: p.Radius,
		Speed:  p.Speed,
		Health: p.Health,
		Alive:  p.Alive,
		Score:  p.Score,
		Level:  p.Level,
		Coins:  p.Coins,
	}
	if !p.InvulnerableUntil.IsZero() {
		info.InvulnerableUntil = p.InvulnerableUntil.UnixMilli()
	}
	return info
}

// ConvertPlayers 批量转换玩家，返回非nil切片
func ConvertPlayers(players []*models.Player) []PlayerInfo {
	out := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, ConvertPlayer(p))
	}
	return out
}

// ConvertProjectile 将投射物模型转换为协议消息
func ConvertProjectile(p *models.Projectile) ProjectileInfo {
	return ProjectileInfo{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		X:         p.Position.X,
		Y:         p.Position.Y,
		DX:        p.Direction.X,
		DY:        p.Direction.Y,
		Speed:     p.Speed,
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
}

// ConvertProjectiles 批量转换投射物，返回非nil切片
func ConvertProjectiles(projectiles []*models.Projectile) []ProjectileInfo {
	out := make([]ProjectileInfo, 0, len(projectiles))
	for _, p := range projectiles {
		out = append(out, ConvertProjectile(p))
	}
	return out
}

// ConvertSessionResult 将结算结果转换为协议消息
func ConvertSessionResult(r *models.SessionResult) SessionSummary {
	return SessionSummary{
		Kills:            r.Kills,
		Deaths:           r.Deaths,
		SurvivalTime:     r.SurvivalTime,
		Placement:        r.Placement,
		CoinsEarned:      r.CoinsEarned,
		ExperienceEarned: r.ExperienceEarned,
	}
}
