package game

import "errors"

// 被拒绝的意图，传输层丢弃这些错误
var (
	ErrPlayerNotFound   = errors.New("玩家不存在")
	ErrPlayerDead       = errors.New("玩家已阵亡")
	ErrShootCooldown    = errors.New("射击冷却中")
	ErrInvalidDirection = errors.New("射击方向无效")
	ErrInvalidPosition  = errors.New("坐标无效")
)
