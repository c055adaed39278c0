package game

import "time"

const (
	WorldSize            = 2000.0
	PlayerRadius         = 50.0
	MinCoord             = PlayerRadius             // 出生与移动的下界
	MaxCoord             = WorldSize - PlayerRadius // 出生与移动的上界
	MaxHealth            = 100
	HitDamage            = 25
	KillScore            = 100
	ProjectileSpeed      = 8.0 // 每tick
	ShootCooldown        = 200 * time.Millisecond
	RespawnDelay         = 1500 * time.Millisecond
	InvulnerableDuration = 2000 * time.Millisecond
	DefaultTickRate      = 30
	GuestNameSuffixRange = 10000
)
