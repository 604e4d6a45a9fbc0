package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORE_DRIVER", "")
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Store.ResultRetries)
	assert.False(t, cfg.Archive.Enabled())
}

func TestLoadFile_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
logging:
  level: debug
  format: console
store:
  driver: postgres
database:
  url: postgres://from-file
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("SERVER_PORT", "")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "postgres://from-env", cfg.Database.URL)
}

func TestLoadFile_RejectsBadPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	_, err := LoadFile("")
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "abc")
	_, err = LoadFile("")
	assert.Error(t, err)
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := defaults()
	cfg.Store.Driver = StorePostgres
	assert.Error(t, cfg.Validate())
	cfg.Database.URL = "postgres://x"
	assert.NoError(t, cfg.Validate())

	cfg.Store.Driver = "mongo"
	assert.Error(t, cfg.Validate())
}
