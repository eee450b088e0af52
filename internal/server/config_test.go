package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8000", config.ListenAddress())
	assert.Equal(t, "info", config.Server.LogLevel)
	assert.Equal(t, "redis://localhost:6379", config.Redis.URL)
	assert.True(t, config.Nats.Enabled)
	assert.Equal(t, "dealerd-audit.db", config.Audit.Path)
	assert.Equal(t, 20, config.Game.MinBet)
	assert.Equal(t, 1000, config.Game.DefaultBuyin)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dealerd.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  address = "0.0.0.0"
  port    = 9000
}

game {
  min_bet = 40
}

audit {
  path    = "/var/lib/dealerd/audit.db"
  enabled = true
}
`), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, "0.0.0.0:9000", config.ListenAddress())
	assert.Equal(t, 40, config.Game.MinBet)
	assert.Equal(t, "/var/lib/dealerd/audit.db", config.Audit.Path)

	// Unset fields fall back to defaults
	assert.Equal(t, "info", config.Server.LogLevel)
	assert.Equal(t, 1000, config.Game.DefaultBuyin)
	assert.Equal(t, "redis://localhost:6379", config.Redis.URL)
	assert.True(t, config.Nats.Enabled)
}

func TestLoadConfigInvalidHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server { port = `), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, false},
		{"zero min_bet", func(c *Config) { c.Game.MinBet = 0 }, false},
		{"odd min_bet breaks the small blind", func(c *Config) { c.Game.MinBet = 25 }, false},
		{"buyin below min_bet", func(c *Config) { c.Game.DefaultBuyin = 10 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if tt.valid {
				assert.NoError(t, config.Validate())
			} else {
				assert.Error(t, config.Validate())
			}
		})
	}
}
