// stats.go

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/stats"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// 分页参数
const (
	DefaultMatchesLimit     = 10
	DefaultLeaderboardLimit = 50
	MaxLimit                = 100
)

// StatsService 战绩查询
type StatsService interface {
	GetUserStats(ctx context.Context, userID int64) (*models.UserStatsSummary, error)
	MatchHistory(ctx context.Context, userID int64, limit, offset int) ([]models.SessionResult, int, error)
	Leaderboard(ctx context.Context, kind models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error)
	RefreshLeaderboard(ctx context.Context) (int, error)
}

// StatsHandler 战绩处理器
type StatsHandler struct {
	service StatsService
	log     zerolog.Logger
}

// NewStatsHandler 创建战绩处理器
func NewStatsHandler(service StatsService, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		log:     log.With().Str("component", "stats_handler").Logger(),
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *StatsHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/stats/player/", h.handlePlayerStats)
	mux.HandleFunc("/stats/matches/", h.handlePlayerMatches)
	mux.HandleFunc("/stats/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/stats/leaderboard/refresh", h.handleRefreshLeaderboard)
}

// StatsResponse 统一响应
type StatsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PlayerMatchesData 玩家对局数据
type PlayerMatchesData struct {
	Matches []models.SessionResult `json:"matches"`
	Total   int                    `json:"total"`
	Page    int                    `json:"page"`
	Limit   int                    `json:"limit"`
}

// handlePlayerStats 处理玩家战绩查询
func (h *StatsHandler) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := parseID(r.URL.Path, "/stats/player/")
	if !ok {
		h.sendError(w, "无效的玩家ID", http.StatusBadRequest)
		return
	}

	summary, err := h.service.GetUserStats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.sendError(w, "玩家不存在", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("查询玩家战绩失败")
		h.sendError(w, "查询玩家战绩失败", http.StatusInternalServerError)
		return
	}

	h.sendSuccess(w, "查询成功", summary)
}

// handlePlayerMatches 处理玩家对局历史查询
func (h *StatsHandler) handlePlayerMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := parseID(r.URL.Path, "/stats/matches/")
	if !ok {
		h.sendError(w, "无效的玩家ID", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	limit := parseLimit(query.Get("limit"), DefaultMatchesLimit)
	offset := 0
	if o, err := strconv.Atoi(query.Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	matches, total, err := h.service.MatchHistory(r.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("查询玩家对局历史失败")
		h.sendError(w, "查询对局历史失败", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []models.SessionResult{}
	}

	h.sendSuccess(w, "查询成功", &PlayerMatchesData{
		Matches: matches,
		Total:   total,
		Page:    offset/limit + 1,
		Limit:   limit,
	})
}

// handleLeaderboard 处理排行榜查询
func (h *StatsHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	kind := models.LeaderboardType(query.Get("type"))
	if kind == "" {
		kind = models.LeaderboardKills
	}
	if _, err := stats.Key(kind); err != nil {
		h.sendError(w, "无效的排行榜类型", http.StatusBadRequest)
		return
	}
	limit := parseLimit(query.Get("limit"), DefaultLeaderboardLimit)

	entries, err := h.service.Leaderboard(r.Context(), kind, limit)
	if err != nil {
		if errors.Is(err, stats.ErrNoLeaderboard) {
			h.sendError(w, "排行榜未启用", http.StatusServiceUnavailable)
			return
		}
		h.log.Error().Err(err).Str("type", string(kind)).Msg("查询排行榜失败")
		h.sendError(w, "查询排行榜失败", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	h.sendSuccess(w, "查询成功", entries)
}

// handleRefreshLeaderboard 处理排行榜刷新
func (h *StatsHandler) handleRefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	n, err := h.service.RefreshLeaderboard(r.Context())
	if err != nil {
		if errors.Is(err, stats.ErrNoLeaderboard) {
			h.sendError(w, "排行榜未启用", http.StatusServiceUnavailable)
			return
		}
		h.log.Error().Err(err).Msg("刷新排行榜失败")
		h.sendError(w, "刷新排行榜失败", http.StatusInternalServerError)
		return
	}

	h.sendSuccess(w, "排行榜刷新成功", map[string]int{"players": n})
}

// sendSuccess 发送成功响应
func (h *StatsHandler) sendSuccess(w http.ResponseWriter, message string, data any) {
	h.write(w, http.StatusOK, StatsResponse{Success: true, Message: message, Data: data})
}

// sendError 发送错误响应
func (h *StatsHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.write(w, statusCode, StatsResponse{Success: false, Message: message})
}

func (h *StatsHandler) write(w http.ResponseWriter, statusCode int, resp StatsResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Warn().Err(err).Msg("编码响应失败")
	}
}

// parseID 从路径中提取正整数ID
func parseID(path, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(path, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseLimit 解析 limit 参数，超出 (0, MaxLimit] 时使用默认值
func parseLimit(raw string, def int) int {
	if l, err := strconv.Atoi(raw); err == nil && l > 0 && l <= MaxLimit {
		return l
	}
	return def
}
