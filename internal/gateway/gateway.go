package gateway

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/config"
)

// Prefix 网关挂载的路径前缀
const Prefix = "/stats/"

// Gateway HTTP接口网关，把战绩接口和中间件组合成一个处理器
type Gateway struct {
	handler http.Handler
	limiter *RateLimiter
	cache   *CacheMiddleware
	log     zerolog.Logger
}

// NewGateway 创建新的网关
func NewGateway(cfg *config.Config, service StatsService, log zerolog.Logger) *Gateway {
	log = log.With().Str("component", "gateway").Logger()

	mux := http.NewServeMux()
	NewStatsHandler(service, log).RegisterHandlers(mux)

	limiter := NewRateLimiter(cfg.Server.RateLimit)
	cors := NewCORSMiddleware(cfg.Server.AllowedOrigins)
	cache := NewCacheMiddleware()

	return &Gateway{
		handler: Chain(mux,
			Logging(log),
			SecurityHeaders,
			cors.Middleware,
			limiter.Middleware,
			cache.Middleware,
		),
		limiter: limiter,
		cache:   cache,
		log:     log,
	}
}

// ServeHTTP 实现 http.Handler
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.handler.ServeHTTP(w, r)
}

// Start 启动后台清理
func (g *Gateway) Start() {
	g.limiter.Start()
	g.log.Info().Int("rate_limit", g.limiter.RequestsPerMinute).Msg("网关已启动")
}

// Stop 停止后台清理
func (g *Gateway) Stop() {
	g.limiter.Stop()
}
