package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("WORLDSIM_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 32, cfg.World.WindowSize)
	assert.Equal(t, time.Hour, cfg.Game.DayLength)
}

func TestLoad_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  name: test-shard
game:
  idle_timeout: 90s
  start_x: 500
world:
  seed: 42
admin:
  operators:
    - username: keeper
      password_hash: "$2a$10$abc"
      admin: true
logging:
  components:
    scheduler: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-shard", cfg.Server.Name)
	assert.Equal(t, 90*time.Second, cfg.Game.IdleTimeout)
	assert.Equal(t, 500, cfg.Game.StartX)
	assert.Equal(t, 1000, cfg.Game.StartY, "не заданные поля остаются по умолчанию")
	assert.Equal(t, int64(42), cfg.World.Seed)
	require.Len(t, cfg.Admin.Operators, 1)
	assert.True(t, cfg.Admin.Operators[0].Admin)
	assert.Equal(t, map[string]string{"scheduler": "debug"}, cfg.Logging.Components)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("WORLDSIM_ADMIN_PORT", "9099")
	t.Setenv("WORLDSIM_NATS_URL", "nats://bus:4222")

	var s ServerConfig
	assert.Equal(t, 9099, s.GetAdminPort())
	s.AdminPort = 7000
	assert.Equal(t, 7000, s.GetAdminPort(), "значение из файла важнее окружения")

	var e EventBusConfig
	assert.Equal(t, "nats://bus:4222", e.GetURL())

	t.Setenv("WORLDSIM_ADMIN_PORT", "garbage")
	assert.Equal(t, 8088, (&ServerConfig{}).GetAdminPort())
}
