package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/tasks.db", cfg.Database.Path)
	assert.Equal(t, 3306, cfg.Database.MySQL.Port)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.RequireToken)
	assert.Equal(t, "task-exports", cfg.Storage.KeyPrefix)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TASKMGR_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("TASKMGR_DATABASE_DRIVER", "mysql")
	t.Setenv("TASKMGR_DATABASE_MYSQL_PORT", "3307")
	t.Setenv("TASKMGR_AUTH_JWTSECRET", "s3cret")
	t.Setenv("TASKMGR_AUTH_REQUIRETOKEN", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3307, cfg.Database.MySQL.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.RequireToken)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKMGR_STORAGE_BUCKET=from-file\nTASKMGR_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("TASKMGR_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("TASKMGR_STORAGE_BUCKET") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Storage.Bucket)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	var cfg Config
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg.Database.Path = "x.db"
	assert.NoError(t, cfg.Validate())

	cfg.Auth.RequireToken = true
	assert.Error(t, cfg.Validate())
	cfg.Auth.JWTSecret = "k"
	assert.NoError(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
