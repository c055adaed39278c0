package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAllTables(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, InitAllTables(context.Background(), conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropAllTablesPropagatesError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	boom := errors.New("permission denied")
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS game_sessions")).WillReturnError(boom)

	assert.ErrorIs(t, DropAllTables(context.Background(), conn), boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedTestAccounts(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	for _, acc := range TestAccounts {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(acc.Username, acc.Email, acc.Level, acc.Experience, acc.Coins).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	n, err := SeedTestAccounts(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, len(TestAccounts), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedTestAccountsSkipsExisting(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := SeedTestAccounts(context.Background(), conn)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedTestAccountsRollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	_, err = SeedTestAccounts(context.Background(), conn)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTestAccountsLevelsMatchExperience(t *testing.T) {
	for _, acc := range TestAccounts {
		assert.Equal(t, acc.Experience/100+1, acc.Level, acc.Username)
	}
}
