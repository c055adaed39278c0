package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/PixelStorm-Arena/config"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/stats"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetUserStats(ctx context.Context, userID int64) (*models.UserStatsSummary, error) {
	args := m.Called(userID)
	s, _ := args.Get(0).(*models.UserStatsSummary)
	return s, args.Error(1)
}

func (m *mockService) MatchHistory(ctx context.Context, userID int64, limit, offset int) ([]models.SessionResult, int, error) {
	args := m.Called(userID, limit, offset)
	rows, _ := args.Get(0).([]models.SessionResult)
	return rows, args.Int(1), args.Error(2)
}

func (m *mockService) Leaderboard(ctx context.Context, kind models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(kind, limit)
	rows, _ := args.Get(0).([]models.LeaderboardEntry)
	return rows, args.Error(1)
}

func (m *mockService) RefreshLeaderboard(ctx context.Context) (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newGateway(svc StatsService) *Gateway {
	cfg := &config.Config{Server: config.ServerConfig{AllowedOrigins: []string{"*"}}}
	return NewGateway(cfg, svc, zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var resp response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestPlayerStats(t *testing.T) {
	svc := new(mockService)
	svc.On("GetUserStats", int64(7)).Return(&models.UserStatsSummary{
		User:  models.Account{ID: 7, Username: "alice", Level: 3},
		Stats: models.UserStats{Kills: 9, Deaths: 3, KD: 3},
	}, nil)

	rec, resp := do(t, newGateway(svc), http.MethodGet, "/stats/player/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	var summary models.UserStatsSummary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, "alice", summary.User.Username)
	assert.InDelta(t, 3.0, summary.Stats.KD, 1e-9)
}

func TestPlayerStatsErrors(t *testing.T) {
	svc := new(mockService)
	svc.On("GetUserStats", int64(404)).Return(nil, fmt.Errorf("%w: 404", store.ErrAccountNotFound))
	svc.On("GetUserStats", int64(500)).Return(nil, errors.New("db down"))
	g := newGateway(svc)

	cases := []struct {
		method, target string
		code           int
	}{
		{http.MethodGet, "/stats/player/abc", http.StatusBadRequest},
		{http.MethodGet, "/stats/player/-3", http.StatusBadRequest},
		{http.MethodPost, "/stats/player/7", http.StatusMethodNotAllowed},
		{http.MethodGet, "/stats/player/404", http.StatusNotFound},
		{http.MethodGet, "/stats/player/500", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec, resp := do(t, g, tc.method, tc.target)
		assert.Equal(t, tc.code, rec.Code, "%s %s", tc.method, tc.target)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Message)
	}
}

func TestPlayerMatches(t *testing.T) {
	svc := new(mockService)
	first := 1
	svc.On("MatchHistory", int64(7), 5, 10).Return([]models.SessionResult{
		{UserID: 7, GameMode: models.BattleRoyale, Kills: 2, Placement: &first},
	}, 11, nil)
	svc.On("MatchHistory", int64(8), DefaultMatchesLimit, 0).Return(nil, 0, nil)
	g := newGateway(svc)

	rec, resp := do(t, g, http.MethodGet, "/stats/matches/7?limit=5&offset=10")
	require.Equal(t, http.StatusOK, rec.Code)
	var data PlayerMatchesData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 11, data.Total)
	assert.Equal(t, 3, data.Page)
	assert.Equal(t, 5, data.Limit)
	require.Len(t, data.Matches, 1)
	assert.True(t, data.Matches[0].Won())

	// 超出范围的参数回退到默认值
	rec, resp = do(t, g, http.MethodGet, "/stats/matches/8?limit=500&offset=-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.NotNil(t, data.Matches)
	assert.Empty(t, data.Matches)
	assert.Equal(t, 1, data.Page)
	svc.AssertExpectations(t)
}

func TestLeaderboard(t *testing.T) {
	svc := new(mockService)
	svc.On("Leaderboard", models.LeaderboardKills, DefaultLeaderboardLimit).Return([]models.LeaderboardEntry{
		{UserID: 8, Username: "bob", Score: 20, Rank: 1},
	}, nil)
	svc.On("Leaderboard", models.LeaderboardDamage, 3).Return(nil, nil)
	g := newGateway(svc)

	rec, resp := do(t, g, http.MethodGet, "/stats/leaderboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.LeaderboardEntry
	require.NoError(t, json.Unmarshal(resp.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].Username)

	rec, resp = do(t, g, http.MethodGet, "/stats/leaderboard?type=damage&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(resp.Data))

	rec, _ = do(t, g, http.MethodGet, "/stats/leaderboard?type=kda")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboardDisabled(t *testing.T) {
	svc := new(mockService)
	svc.On("Leaderboard", models.LeaderboardWins, DefaultLeaderboardLimit).Return(nil, stats.ErrNoLeaderboard)
	svc.On("RefreshLeaderboard").Return(0, stats.ErrNoLeaderboard)
	g := newGateway(svc)

	rec, _ := do(t, g, http.MethodGet, "/stats/leaderboard?type=wins")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = do(t, g, http.MethodPost, "/stats/leaderboard/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshLeaderboard(t *testing.T) {
	svc := new(mockService)
	svc.On("RefreshLeaderboard").Return(42, nil).Once()
	g := newGateway(svc)

	rec, _ := do(t, g, http.MethodGet, "/stats/leaderboard/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, resp := do(t, g, http.MethodPost, "/stats/leaderboard/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"players":42}`, string(resp.Data))
	svc.AssertExpectations(t)
}
