// entity.go

package models

import (
	"math"
	"time"
)

// Vector2D 二维向量
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Length 向量长度
func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Add 向量相加
func (v Vector2D) Add(o Vector2D) Vector2D {
	return Vector2D{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale 向量缩放
func (v Vector2D) Scale(k float64) Vector2D {
	return Vector2D{X: v.X * k, Y: v.Y * k}
}

// Distance 两点间欧氏距离
func (v Vector2D) Distance(o Vector2D) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// IsFinite 两个分量都不是NaN或无穷大
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Normalize 归一化向量，零向量或非有限值返回false
func (v Vector2D) Normalize() (Vector2D, bool) {
	if !v.IsFinite() {
		return Vector2D{}, false
	}
	length := v.Length()
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return Vector2D{}, false
	}
	return Vector2D{X: v.X / length, Y: v.Y / length}, true
}

// Player 玩家实体，每个连接一个
type Player struct {
	ID     string `json:"id"`               // 连接ID
	UserID int64  `json:"userId,omitempty"` // 账号ID，游客为0
	Name   string `json:"name"`
	Level  int    `json:"level"`
	Coins  int    `json:"coins"`

	Position Vector2D `json:"position"`
	Radius   float64  `json:"radius"`
	Speed    float64  `json:"speed"` // 客户端上报的速度，原样保存

	// 战斗属性
	Health            int       `json:"health"`
	Alive             bool      `json:"alive"`
	Score             int       `json:"score"`
	InvulnerableUntil time.Time `json:"invulnerableUntil"`
	LastShotAt        time.Time `json:"-"`
}

// IsGuest 是否为游客
func (p *Player) IsGuest() bool {
	return p.UserID == 0
}

// IsInvulnerable 在 now <= InvulnerableUntil 期间免疫伤害
func (p *Player) IsInvulnerable(now time.Time) bool {
	return !now.After(p.InvulnerableUntil)
}

// Clone 复制玩家，供存储之外的调用方读取
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Projectile 投射物实体，每次射击一个
type Projectile struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Position  Vector2D  `json:"position"`
	Direction Vector2D  `json:"direction"` // 单位向量
	Speed     float64   `json:"speed"`     // 每tick移动距离
	CreatedAt time.Time `json:"createdAt"`
}

// Advance 沿方向前进一个tick
func (p *Projectile) Advance() {
	p.Position = p.Position.Add(p.Direction.Scale(p.Speed))
}

// Clone 复制投射物
func (p *Projectile) Clone() *Projectile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
