// messages.go

package protocol

// Version 当前消息结构版本
const Version = 1

// Type 消息类型
type Type string

// 客户端 -> 服务器
const (
	TypeJoin  Type = "join"
	TypeMove  Type = "move"
	TypeShoot Type = "shoot"
)

// 服务器 -> 客户端
const (
	TypeWorldSnapshot      Type = "worldSnapshot"
	TypePlayerJoined       Type = "playerJoined"
	TypePlayerMoved        Type = "playerMoved"
	TypeProjectileCreated  Type = "projectileCreated"
	TypePlayerDisconnected Type = "playerDisconnected"
	TypeProjectilesUpdate  Type = "projectilesUpdate"
	TypePlayerHit          Type = "playerHit"
	TypePlayerEliminated   Type = "playerEliminated"
	TypePlayerRespawned    Type = "playerRespawned"
	TypeSessionSummary     Type = "sessionSummary"
)

// Inbound 客户端发来的意图
type Inbound interface {
	InboundType() Type
}

// Outbound 发往客户端的消息
type Outbound interface {
	OutboundType() Type
}

// Join 加入对局
type Join struct {
	Name string `json:"name,omitempty"`
}

// Move 移动意图
type Move struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"speed"`
}

// Shoot 射击意图，X/Y 为客户端视角的位置，服务器不采用
type Shoot struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	DirX float64 `json:"dirX"`
	DirY float64 `json:"dirY"`
}

func (Join) InboundType() Type  { return TypeJoin }
func (Move) InboundType() Type  { return TypeMove }
func (Shoot) InboundType() Type { return TypeShoot }

// PlayerInfo 玩家在线状态
type PlayerInfo struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	Radius            float64 `json:"radius"`
	Speed             float64 `json:"speed"`
	Health            int     `json:"health"`
	Alive             bool    `json:"alive"`
	Score             int     `json:"score"`
	Level             int     `json:"level"`
	Coins             int     `json:"coins"`
	InvulnerableUntil int64   `json:"invulnerableUntil"` // unix毫秒
}

// ProjectileInfo 投射物状态
type ProjectileInfo struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"ownerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	Speed     float64 `json:"speed"`
	CreatedAt int64   `json:"createdAt"` // unix毫秒
}

// WorldSnapshot 加入时发给本人的完整世界
type WorldSnapshot struct {
	PlayerID    string           `json:"playerId"`
	Players     []PlayerInfo     `json:"players"`
	Projectiles []ProjectileInfo `json:"projectiles"`
}

// PlayerJoined 新玩家加入
type PlayerJoined struct {
	Player PlayerInfo `json:"player"`
}

// PlayerMoved 玩家位置更新
type PlayerMoved struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"speed"`
}

// ProjectileCreated 新投射物
type ProjectileCreated struct {
	Projectile ProjectileInfo `json:"projectile"`
}

// PlayerDisconnected 玩家断开
type PlayerDisconnected struct {
	ID string `json:"id"`
}

// ProjectilesUpdate 每tick的投射物列表，为空时也发送
type ProjectilesUpdate struct {
	Projectiles []ProjectileInfo `json:"projectiles"`
}

// PlayerHit 玩家被命中
type PlayerHit struct {
	PlayerID  string `json:"playerId"`
	Damage    int    `json:"damage"`
	Health    int    `json:"health"`
	ShooterID string `json:"shooterId"`
}

// PlayerEliminated 玩家被淘汰
type PlayerEliminated struct {
	EliminatedID   string `json:"eliminatedId"`
	EliminatedName string `json:"eliminatedName"`
	ShooterID      string `json:"shooterId"`
	ShooterName    string `json:"shooterName"`
	Health         int    `json:"health"`
}

// PlayerRespawned 玩家重生
type PlayerRespawned struct {
	ID     string     `json:"id"`
	Player PlayerInfo `json:"player"`
}

// SessionSummary 对局结算结果
type SessionSummary struct {
	Kills            int  `json:"kills"`
	Deaths           int  `json:"deaths"`
	SurvivalTime     int  `json:"survivalTime"` // 秒
	Placement        *int `json:"placement,omitempty"`
	CoinsEarned      int  `json:"coinsEarned"`
	ExperienceEarned int  `json:"experienceEarned"`
}

func (WorldSnapshot) OutboundType() Type      { return TypeWorldSnapshot }
func (PlayerJoined) OutboundType() Type       { return TypePlayerJoined }
func (PlayerMoved) OutboundType() Type        { return TypePlayerMoved }
func (ProjectileCreated) OutboundType() Type  { return TypeProjectileCreated }
func (PlayerDisconnected) OutboundType() Type { return TypePlayerDisconnected }
func (ProjectilesUpdate) OutboundType() Type  { return TypeProjectilesUpdate }
func (PlayerHit) OutboundType() Type          { return TypePlayerHit }
func (PlayerEliminated) OutboundType() Type   { return TypePlayerEliminated }
func (PlayerRespawned) OutboundType() Type    { return TypePlayerRespawned }
func (SessionSummary) OutboundType() Type     { return TypeSessionSummary }
