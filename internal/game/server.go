package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/config"
)

// settleTimeout 关闭时等待对局结算的最长时间
const settleTimeout = 5 * time.Second

// TokenVerifier 握手令牌校验
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// GameServer 游戏服务器，负责HTTP与websocket接入
type GameServer struct {
	config   *config.Config
	engine   *Engine
	hub      *Hub
	verifier TokenVerifier
	log      zerolog.Logger

	mux        *http.ServeMux
	upgrader   websocket.Upgrader
	httpServer *http.Server

	// 连接协程使用的上下文，ListenAndServe 时替换
	baseCtx context.Context
}

// NewGameServer 创建新的游戏服务器，verifier 为nil时只接受游客
func NewGameServer(cfg *config.Config, engine *Engine, hub *Hub, verifier TokenVerifier, log zerolog.Logger) *GameServer {
	s := &GameServer{
		config:   cfg,
		engine:   engine,
		hub:      hub,
		verifier: verifier,
		log:      log.With().Str("component", "game_server").Logger(),
		mux:      http.NewServeMux(),
		baseCtx:  context.Background(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// WebSocket 连接端点
	s.mux.HandleFunc("/ws", s.handleWSConnection)

	// 健康检查端点
	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return s
}

// Mount 挂载额外的HTTP处理器
func (s *GameServer) Mount(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler 返回HTTP处理器
func (s *GameServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe 监听 game_port 并提供服务
func (s *GameServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Server.GamePort))
	if err != nil {
		return fmt.Errorf("监听端口失败: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在 ln 上提供服务，ctx 结束时先等待对局结算，再断开所有连接并关闭
func (s *GameServer) Serve(ctx context.Context, ln net.Listener) error {
	s.baseCtx = ctx
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("游戏服务器启动")
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP服务器错误: %w", err)
	case <-ctx.Done():
	}

	s.awaitSettlement()
	// websocket 连接已被接管，Shutdown 不会等待它们
	s.hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP服务器关闭错误: %w", err)
	}
	s.log.Info().Msg("游戏服务器已停止")
	return nil
}

// awaitSettlement 等待引擎完成最后一局结算，结算消息要在连接关闭前入队
func (s *GameServer) awaitSettlement() {
	if !s.engine.Running() {
		return
	}
	timer := time.NewTimer(settleTimeout)
	defer timer.Stop()
	select {
	case <-s.engine.Settled():
	case <-timer.C:
		s.log.Warn().Dur("timeout", settleTimeout).Msg("等待对局结算超时")
	}
}

// checkOrigin 按 allowed_origins 校验来源，"*" 放行全部，无Origin头的非浏览器客户端放行
func (s *GameServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
