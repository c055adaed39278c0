// store.go

package world

import (
	"sort"
	"sync"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

// Store 世界状态存储，持有全部玩家与投射物
//
// 所有读写都经过同一把锁。Store 的单项方法返回副本；
// 需要在一次原子操作里读改写多个实体时使用 Update。
type Store struct {
	mu          sync.RWMutex
	players     map[string]*models.Player
	projectiles []*models.Projectile
}

// NewStore 创建空的世界状态
func NewStore() *Store {
	return &Store{
		players:     make(map[string]*models.Player),
		projectiles: make([]*models.Projectile, 0),
	}
}

// Put 写入玩家（按ID覆盖）
func (s *Store) Put(p *models.Player) {
	s.Update(func(tx *Tx) {
		tx.Put(p.Clone())
	})
}

// Get 读取玩家副本
func (s *Store) Get(id string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Remove 移除玩家及其拥有的全部投射物，返回被移除的玩家与投射物
func (s *Store) Remove(id string) (*models.Player, []*models.Projectile) {
	var (
		player  *models.Player
		removed []*models.Projectile
	)
	s.Update(func(tx *Tx) {
		player, removed = tx.Remove(id)
	})
	return player, removed
}

// AllPlayers 按ID升序返回全部玩家副本
func (s *Store) AllPlayers() []*models.Player {
	var out []*models.Player
	s.View(func(tx *Tx) {
		players := tx.Players()
		out = make([]*models.Player, len(players))
		for i, p := range players {
			out[i] = p.Clone()
		}
	})
	return out
}

// PlayerCount 当前玩家数量
func (s *Store) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// PushProjectile 追加投射物
func (s *Store) PushProjectile(p *models.Projectile) {
	s.Update(func(tx *Tx) {
		tx.PushProjectile(p.Clone())
	})
}

// RemoveProjectiles 移除满足条件的投射物，返回移除数量
func (s *Store) RemoveProjectiles(pred func(*models.Projectile) bool) int {
	var n int
	s.Update(func(tx *Tx) {
		n = tx.RemoveProjectiles(pred)
	})
	return n
}

// AllProjectiles 按创建顺序返回全部投射物副本
func (s *Store) AllProjectiles() []*models.Projectile {
	var out []*models.Projectile
	s.View(func(tx *Tx) {
		projectiles := tx.Projectiles()
		out = make([]*models.Projectile, len(projectiles))
		for i, p := range projectiles {
			out[i] = p.Clone()
		}
	})
	return out
}

// Update 在写锁内执行 fn，fn 中的所有修改对其他调用方原子可见。
// tx 及其返回的指针不得逃逸出 fn，fn 内不得做网络IO。
func (s *Store) Update(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{store: s})
}

// View 在读锁内执行 fn，fn 不得修改实体
func (s *Store) View(fn func(tx *Tx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&Tx{store: s})
}

// Tx 锁内视图，直接操作存储中的实体
type Tx struct {
	store *Store
}

// Player 返回可修改的玩家，不存在时返回nil
func (tx *Tx) Player(id string) *models.Player {
	return tx.store.players[id]
}

// Players 按ID升序返回可修改的玩家列表
func (tx *Tx) Players() []*models.Player {
	players := make([]*models.Player, 0, len(tx.store.players))
	for _, p := range tx.store.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ID < players[j].ID
	})
	return players
}

// Put 写入玩家
func (tx *Tx) Put(p *models.Player) {
	tx.store.players[p.ID] = p
}

// Remove 移除玩家及其投射物
func (tx *Tx) Remove(id string) (*models.Player, []*models.Projectile) {
	p, ok := tx.store.players[id]
	if !ok {
		return nil, nil
	}
	delete(tx.store.players, id)

	var removed []*models.Projectile
	tx.RemoveProjectiles(func(proj *models.Projectile) bool {
		if proj.OwnerID == id {
			removed = append(removed, proj)
			return true
		}
		return false
	})
	return p, removed
}

// Projectiles 返回可修改的投射物列表
func (tx *Tx) Projectiles() []*models.Projectile {
	return tx.store.projectiles
}

// PushProjectile 追加投射物
func (tx *Tx) PushProjectile(p *models.Projectile) {
	tx.store.projectiles = append(tx.store.projectiles, p)
}

// RemoveProjectiles 原地过滤投射物列表
func (tx *Tx) RemoveProjectiles(pred func(*models.Projectile) bool) int {
	kept := tx.store.projectiles[:0]
	removed := 0
	for _, p := range tx.store.projectiles {
		if pred(p) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	// 释放尾部引用
	for i := len(kept); i < len(tx.store.projectiles); i++ {
		tx.store.projectiles[i] = nil
	}
	tx.store.projectiles = kept
	return removed
}
