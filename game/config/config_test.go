package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomida/gamebot/game/backend"
)

const sample = `
telegram:
  token: "123:abc"
  admin_id: 7
backend:
  base_url: "https://api.example.com"
  timeout: 90s
games:
  - short_name: flags
    url: "https://games.example.com/flags"
  - short_name: maps
    title: "Maps"
    url: "https://games.example.com/maps"
notify:
  admin_ids: [7, 8]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, backend.MaxTimeout, cfg.Backend.Timeout, "timeout is capped")
	assert.Equal(t, "Gomida Games", cfg.App.Name)
	assert.Equal(t, 15, cfg.Leaderboard.PageSize)
	assert.Equal(t, DriverMemory, cfg.Session.Driver)
	assert.Equal(t, time.Hour, cfg.Session.PruneInterval)
	assert.False(t, cfg.Play.RequiresUnlock)
	assert.False(t, cfg.UsesDatabase())
	assert.Equal(t, "flags", cfg.Games[0].Title)
	assert.Equal(t, []int64{7, 8}, cfg.AdminIDs())
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend:8000")
	t.Setenv("PLAY_REQUIRES_UNLOCK", "true")
	t.Setenv("SESSION_TTL", "48h")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000", cfg.Backend.BaseURL)
	assert.True(t, cfg.Play.RequiresUnlock)
	assert.Equal(t, 48*time.Hour, cfg.Session.TTL)
}

func TestNormalizeRejectsInvalidConfig(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, sample))
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Backend.BaseURL = ""
	assert.ErrorContains(t, Normalize(cfg), "backend.base_url")

	cfg = base()
	cfg.Games = append(cfg.Games, cfg.Games[0])
	assert.ErrorContains(t, Normalize(cfg), "duplicate")

	cfg = base()
	cfg.Games[0].URL = "/relative"
	assert.ErrorContains(t, Normalize(cfg), "games[0].url")

	cfg = base()
	cfg.Session.Driver = "redis"
	assert.ErrorContains(t, Normalize(cfg), "session.driver")

	cfg = base()
	cfg.Session.Driver = DriverPostgres
	assert.ErrorContains(t, Normalize(cfg), "database.host")

	cfg = base()
	cfg.Telegram.Token = ""
	assert.ErrorContains(t, Normalize(cfg), "telegram token")
}
