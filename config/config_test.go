package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: s3cret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.GamePort)
	assert.Equal(t, 30, cfg.Server.TickRate)
	assert.Equal(t, 120, cfg.Server.RateLimit)
	assert.Equal(t, "battle_royale", cfg.Stats.GameMode)
	assert.Equal(t, 5*time.Second, cfg.Stats.PersistTimeout)
	assert.Equal(t, time.Minute, cfg.Redis.AccountCacheTTL)
	assert.True(t, cfg.Auth.AllowGuests)
}

func TestLoadReadsFile(t *testing.T) {
	path := writeConfig(t, `
server:
  game_port: 9001
  tick_rate: 60
database:
  host: db
  port: 6543
  user: arena
  password: pw
  dbname: arena
  sslmode: require
redis:
  host: cache
  port: 6380
auth:
  jwt_secret: abc
  allow_guests: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.GamePort)
	assert.Equal(t, time.Second/60, cfg.Server.TickInterval())
	assert.Equal(t, "host=db port=6543 user=arena password=pw dbname=arena sslmode=require", cfg.Database.GetDSN())
	assert.Equal(t, "cache:6380", cfg.Redis.GetRedisAddr())
	assert.False(t, cfg.Auth.AllowGuests)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: abc\n")
	t.Setenv("PIXELSTORM_SERVER_GAME_PORT", "7777")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.GamePort)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero tick rate", "server:\n  tick_rate: 0\n"},
		{"no way to connect", "auth:\n  allow_guests: false\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
