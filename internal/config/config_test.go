package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5050", cfg.Server.Port)
	assert.True(t, cfg.Server.CSRF)
	assert.Equal(t, uint(30), cfg.Server.SessionRateLimit)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 0, cfg.Capture.MaxOutstandingWrites)
	assert.Equal(t, 30*time.Minute, cfg.Capture.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Capture.SweepInterval)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
	assert.Empty(t, cfg.Tasks.Catalog)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	yaml := `
server:
  port: "8080"
  csrf: false
database:
  driver: sqlite
  path: /tmp/kt.db
capture:
  max_outstanding_writes: 64
  idle_timeout: 0s
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("KEYTRACE_SERVER_PORT", "9090")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port, "environment wins over the file")
	assert.False(t, cfg.Server.CSRF)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/kt.db", cfg.Database.Path)
	assert.Equal(t, 64, cfg.Capture.MaxOutstandingWrites)
	assert.Zero(t, cfg.Capture.IdleTimeout)
	assert.Equal(t, "5432", cfg.Database.Port)
}

func TestLoad_MalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte("server: [unterminated"), 0o644))

	_, err := Load(root)
	assert.Error(t, err)
}

func TestInit_SetsCurrent(t *testing.T) {
	require.NoError(t, Init(t.TempDir(), zap.NewNop()))
	require.NotNil(t, Current())
	assert.Equal(t, "5050", Current().Server.Port)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "kt"}
	assert.Equal(t, "host=db user=u password=p dbname=kt port=5432 sslmode=disable TimeZone=UTC", d.DSN())
}
