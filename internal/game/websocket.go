// websocket.go

package game

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jacl-coder/PixelStorm-Arena/internal/protocol"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 4 * 1024
)

var errGuestsDisabled = errors.New("不允许游客连接")

// handleWSConnection 处理WebSocket连接
func (s *GameServer) handleWSConnection(w http.ResponseWriter, r *http.Request) {
	ident, err := s.authenticate(r)
	if err != nil {
		s.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("握手认证失败")
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}

	if limit := s.config.Server.MaxPlayers; limit > 0 && s.hub.Count() >= limit {
		http.Error(w, "服务器已满", http.StatusServiceUnavailable)
		return
	}

	// 升级HTTP连接为WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket升级失败")
		return
	}

	player := NewPlayerConnection(
		uuid.NewString(),
		ident.UserID,
		r.URL.Query().Get("format") == "binary",
		func() { conn.Close() },
	)
	s.hub.Register(player)

	s.log.Info().
		Str("conn_id", player.ID).
		Int64("user_id", player.UserID).
		Bool("binary", player.Binary).
		Msg("玩家已连接")

	// 启动读写协程
	go s.writePump(conn, player)
	go s.readPump(conn, player, ident)
}

// authenticate 从 token 参数或 Authorization 头解析身份，没有令牌时按游客处理
func (s *GameServer) authenticate(r *http.Request) (Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	if token == "" {
		if !s.config.Auth.AllowGuests {
			return Identity{}, errGuestsDisabled
		}
		return Identity{}, nil
	}
	if s.verifier == nil {
		return Identity{}, errors.New("未配置令牌校验")
	}

	userID, err := s.verifier.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID}, nil
}

// readPump 从WebSocket读取数据，退出时走断线流程
func (s *GameServer) readPump(conn *websocket.Conn, player *PlayerConnection, ident Identity) {
	defer func() {
		s.engine.Disconnect(player.ID)
		s.hub.Unregister(player.ID)
		conn.Close()
		s.log.Info().Str("conn_id", player.ID).Msg("玩家已断开连接")
	}()

	// 设置读取参数
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Str("conn_id", player.ID).Msg("WebSocket错误")
			}
			return
		}

		player.Touch()
		s.handleMessage(player, ident, message)
	}
}

// writePump 向WebSocket写入数据
func (s *GameServer) writePump(conn *websocket.Conn, player *PlayerConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case f, ok := <-player.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			messageType := websocket.TextMessage
			if f.binary {
				messageType = websocket.BinaryMessage
			}
			if err := conn.WriteMessage(messageType, f.data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息，被拒绝的意图静默丢弃
func (s *GameServer) handleMessage(player *PlayerConnection, ident Identity, data []byte) {
	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		s.log.Debug().Err(err).Str("conn_id", player.ID).Msg("解析消息失败")
		return
	}

	switch m := msg.(type) {
	case protocol.Join:
		s.engine.Join(s.baseCtx, player.ID, ident, m.Name)
	case protocol.Move:
		_, err = s.engine.Move(player.ID, m.X, m.Y, m.Speed)
	case protocol.Shoot:
		_, err = s.engine.Shoot(player.ID, m.DirX, m.DirY)
	}

	if err != nil {
		s.log.Debug().Err(err).Str("conn_id", player.ID).Str("type", string(msg.InboundType())).Msg("意图被拒绝")
	}
}
