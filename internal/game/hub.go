// hub.go

package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

const sendBufferSize = 256

// frame 待写出的一条websocket消息
type frame struct {
	data   []byte
	binary bool
}

// PlayerConnection 玩家连接
type PlayerConnection struct {
	ID     string
	UserID int64
	Binary bool // projectilesUpdate 使用二进制帧
	Send   chan frame

	mu         sync.Mutex
	lastActive time.Time
	closeOnce  sync.Once
	closeFn    func()
}

// NewPlayerConnection 创建连接，closeFn 用于强制断开底层连接
func NewPlayerConnection(id string, userID int64, binary bool, closeFn func()) *PlayerConnection {
	return &PlayerConnection{
		ID:         id,
		UserID:     userID,
		Binary:     binary,
		Send:       make(chan frame, sendBufferSize),
		lastActive: time.Now(),
		closeFn:    closeFn,
	}
}

// Touch 记录最近一次收到消息的时间
func (c *PlayerConnection) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// LastActive 最近一次收到消息的时间
func (c *PlayerConnection) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// kick 关闭底层连接，读协程随后退出并走正常断线流程
func (c *PlayerConnection) kick() {
	c.closeOnce.Do(func() {
		if c.closeFn != nil {
			c.closeFn()
		}
	})
}

// Hub 在线连接表，实现 Broadcaster
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*PlayerConnection
	log         zerolog.Logger
}

var _ Broadcaster = (*Hub)(nil)

// NewHub 创建连接表
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*PlayerConnection),
		log:         log.With().Str("component", "hub").Logger(),
	}
}

// Register 登记连接
func (h *Hub) Register(c *PlayerConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.ID] = c
}

// Unregister 移除连接并关闭发送通道，重复调用无副作用
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.connections[id]
	if !ok {
		return
	}
	delete(h.connections, id)
	close(c.Send)
}

// Count 在线连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// CloseAll 移除所有连接并关闭发送通道，写协程发完已排队的消息后断开
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.connections {
		delete(h.connections, id)
		close(c.Send)
	}
}

// Send 向单个连接发送消息
func (h *Hub) Send(connID string, msg protocol.Outbound) {
	enc := newEncoder(msg, h.log)

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.connections[connID]
	if !ok {
		return
	}
	h.push(c, enc)
}

// Broadcast 向除 exceptID 外的所有连接广播
func (h *Hub) Broadcast(msg protocol.Outbound, exceptID string) {
	enc := newEncoder(msg, h.log)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.connections {
		if id == exceptID {
			continue
		}
		h.push(c, enc)
	}
}

// push 非阻塞写入发送通道，通道已满时断开慢连接
func (h *Hub) push(c *PlayerConnection, enc *encoder) {
	f, ok := enc.frameFor(c.Binary)
	if !ok {
		return
	}
	select {
	case c.Send <- f:
	default:
		h.log.Warn().Str("conn_id", c.ID).Msg("发送队列已满，断开连接")
		go c.kick()
	}
}

// encoder 每条消息最多编码一次JSON和一次二进制
type encoder struct {
	msg    protocol.Outbound
	log    zerolog.Logger
	json   []byte
	bin    []byte
	failed bool
}

func newEncoder(msg protocol.Outbound, log zerolog.Logger) *encoder {
	return &encoder{msg: msg, log: log}
}

func (e *encoder) frameFor(binary bool) (frame, bool) {
	if binary {
		if update, ok := e.msg.(protocol.ProjectilesUpdate); ok {
			if e.bin == nil {
				e.bin = protocol.EncodeProjectilesBinary(update)
			}
			return frame{data: e.bin, binary: true}, true
		}
	}
	if e.failed {
		return frame{}, false
	}
	if e.json == nil {
		data, err := protocol.Encode(e.msg)
		if err != nil {
			e.log.Error().Err(err).Str("type", string(e.msg.OutboundType())).Msg("序列化消息失败")
			e.failed = true
			return frame{}, false
		}
		e.json = data
	}
	return frame{data: e.json, binary: false}, true
}
