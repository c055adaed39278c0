package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type PostgresSuite struct {
	suite.Suite
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *Postgres
	ctx   context.Context
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db = db
	s.mock = mock
	s.store = NewPostgres(db)
	s.ctx = context.Background()
}

func (s *PostgresSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func (s *PostgresSuite) TestGetAccount() {
	s.mock.ExpectQuery(q("FROM users")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "coins", "experience", "level", "updated_at"}).
			AddRow(7, "alice", 1200, 250, 3, epoch))

	acc, err := s.store.GetAccount(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(models.Account{ID: 7, Username: "alice", Coins: 1200, Experience: 250, Level: 3, UpdatedAt: epoch}, *acc)
}

func (s *PostgresSuite) TestGetAccountNotFound() {
	s.mock.ExpectQuery(q("FROM users")).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := s.store.GetAccount(s.ctx, 9)
	s.ErrorIs(err, ErrAccountNotFound)
}

func (s *PostgresSuite) TestGetAccountDatabaseError() {
	boom := errors.New("connection reset")
	s.mock.ExpectQuery(q("FROM users")).WithArgs(int64(9)).WillReturnError(boom)

	_, err := s.store.GetAccount(s.ctx, 9)
	s.ErrorIs(err, boom)
	s.NotErrorIs(err, ErrAccountNotFound)
}

func (s *PostgresSuite) TestAddCoinsAndXp() {
	s.mock.ExpectQuery(q("SET coins = coins + $2")).
		WithArgs(int64(7), 520, 1050, models.ExperiencePerLevel).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "coins", "experience", "level", "updated_at"}).
			AddRow(7, "alice", 620, 2000, 21, epoch))

	acc, err := s.store.AddCoinsAndXp(s.ctx, 7, 520, 1050)
	s.Require().NoError(err)
	s.Equal(models.Account{ID: 7, Username: "alice", Coins: 620, Experience: 2000, Level: 21, UpdatedAt: epoch}, *acc)
}

func (s *PostgresSuite) TestAddCoinsAndXpMissingAccount() {
	s.mock.ExpectQuery(q("UPDATE users")).
		WithArgs(int64(7), 1, 2, models.ExperiencePerLevel).
		WillReturnError(sql.ErrNoRows)

	_, err := s.store.AddCoinsAndXp(s.ctx, 7, 1, 2)
	s.ErrorIs(err, ErrAccountNotFound)
}

func (s *PostgresSuite) TestAppendStatsRowUpserts() {
	s.mock.ExpectExec(q("ON CONFLICT (user_id) DO UPDATE")).
		WithArgs(int64(7), 3, 1, 1, 1, 75, 120, 520).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s.NoError(s.store.AppendStatsRow(s.ctx, models.StatsDelta{
		UserID: 7, Kills: 3, Deaths: 1, GamesPlayed: 1, GamesWon: 1, Damage: 75, TimePlayed: 120, CoinsEarned: 520,
	}))
}

func (s *PostgresSuite) TestAppendSessionRowResolvesGameMode() {
	first := 1
	s.mock.ExpectExec(q("(SELECT id FROM game_modes WHERE name = $2)")).
		WithArgs(int64(7), "battle_royale", 3, 1, 75, 120, int64(1), 520, 1300, epoch, epoch.Add(2*time.Minute)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s.NoError(s.store.AppendSessionRow(s.ctx, &models.SessionResult{
		UserID: 7, GameMode: models.BattleRoyale, Kills: 3, Deaths: 1, DamageDealt: 75, SurvivalTime: 120,
		Placement: &first, CoinsEarned: 520, ExperienceEarned: 1300,
		StartedAt: epoch, EndedAt: epoch.Add(2 * time.Minute),
	}))
}

func (s *PostgresSuite) TestAppendSessionRowWithoutPlacement() {
	s.mock.ExpectExec(q("INSERT INTO game_sessions")).
		WithArgs(int64(7), "battle_royale", 0, 0, 0, 5, nil, 0, 0, epoch, epoch).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s.NoError(s.store.AppendSessionRow(s.ctx, &models.SessionResult{
		UserID: 7, GameMode: models.BattleRoyale, SurvivalTime: 5, StartedAt: epoch, EndedAt: epoch,
	}))
}

func (s *PostgresSuite) TestGetUserStats() {
	s.mock.ExpectQuery(q("FROM user_stats")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"kills", "deaths", "games_played", "games_won", "total_damage", "time_played"}).
			AddRow(10, 4, 6, 2, 900, 3600))

	st, err := s.store.GetUserStats(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(models.UserStats{Kills: 10, Deaths: 4, GamesPlayed: 6, GamesWon: 2, TotalDamage: 900, TimePlayed: 3600}, *st)
}

func (s *PostgresSuite) TestGetUserStatsWithoutRow() {
	s.mock.ExpectQuery(q("FROM user_stats")).WithArgs(int64(7)).WillReturnError(sql.ErrNoRows)

	st, err := s.store.GetUserStats(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(models.UserStats{}, *st)
}

func (s *PostgresSuite) TestListSessions() {
	s.mock.ExpectQuery(q("SELECT COUNT(*) FROM game_sessions")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	s.mock.ExpectQuery(q("ORDER BY gs.started_at DESC")).
		WithArgs(int64(7), 2, 4).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "name", "kills", "deaths", "damage_dealt", "survival_time",
			"placement", "coins_earned", "experience_earned", "started_at", "ended_at",
		}).
			AddRow(7, "battle_royale", 2, 1, 50, 90, 1, 650, 1250, epoch.Add(time.Hour), epoch.Add(time.Hour+90*time.Second)).
			AddRow(7, "battle_royale", 0, 3, 0, 30, nil, 0, 0, epoch, nil))

	sessions, total, err := s.store.ListSessions(s.ctx, 7, 2, 4)
	s.Require().NoError(err)
	s.Equal(12, total)
	s.Require().Len(sessions, 2)

	s.Equal(models.BattleRoyale, sessions[0].GameMode)
	s.Require().NotNil(sessions[0].Placement)
	s.Equal(1, *sessions[0].Placement)
	s.Equal(epoch.Add(time.Hour+90*time.Second), sessions[0].EndedAt)

	s.Nil(sessions[1].Placement)
	s.True(sessions[1].EndedAt.IsZero())
}

func (s *PostgresSuite) TestListSessionsEmpty() {
	s.mock.ExpectQuery(q("SELECT COUNT(*)")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(q("FROM game_sessions gs")).
		WithArgs(int64(7), 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "name", "kills", "deaths", "damage_dealt", "survival_time",
			"placement", "coins_earned", "experience_earned", "started_at", "ended_at",
		}))

	sessions, total, err := s.store.ListSessions(s.ctx, 7, 10, 0)
	s.Require().NoError(err)
	s.Zero(total)
	s.NotNil(sessions)
	s.Empty(sessions)
}

func (s *PostgresSuite) TestLeaderboardRows() {
	s.mock.ExpectQuery(q("JOIN users u ON u.id = s.user_id")).
		WithArgs(1000).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "kills", "games_won", "total_damage"}).
			AddRow(8, "bob", 20, 0, 300).
			AddRow(7, "alice", 12, 2, 900))

	rows, err := s.store.LeaderboardRows(s.ctx, 1000)
	s.Require().NoError(err)
	s.Equal([]models.LeaderboardRow{
		{UserID: 8, Username: "bob", Kills: 20, Wins: 0, Damage: 300},
		{UserID: 7, Username: "alice", Kills: 12, Wins: 2, Damage: 900},
	}, rows)
}
