package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete dealerd configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Redis  *RedisConfig   `hcl:"redis,block"`
	Nats   *NatsConfig    `hcl:"nats,block"`
	Audit  *AuditConfig   `hcl:"audit,block"`
	Game   *GameConfig    `hcl:"game,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RedisConfig locates the cache and lock store.
type RedisConfig struct {
	URL string `hcl:"url,optional"`
}

// NatsConfig locates the event bus. Disabled means events are only delivered
// over the WebSocket fan-out.
type NatsConfig struct {
	URL     string `hcl:"url,optional"`
	Enabled bool   `hcl:"enabled,optional"`
}

// AuditConfig locates the hand audit database.
type AuditConfig struct {
	Path    string `hcl:"path,optional"`
	Enabled bool   `hcl:"enabled,optional"`
}

// GameConfig sets table defaults.
type GameConfig struct {
	MinBet       int `hcl:"min_bet,optional"`
	DefaultBuyin int `hcl:"default_buyin,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8000,
			LogLevel: "info",
		},
		Redis: &RedisConfig{URL: "redis://localhost:6379"},
		Nats:  &NatsConfig{URL: "nats://localhost:4222", Enabled: true},
		Audit: &AuditConfig{Path: "dealerd-audit.db", Enabled: true},
		Game:  &GameConfig{MinBet: 20, DefaultBuyin: 1000},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Redis == nil {
		config.Redis = defaults.Redis
	} else if config.Redis.URL == "" {
		config.Redis.URL = defaults.Redis.URL
	}
	if config.Nats == nil {
		config.Nats = defaults.Nats
	} else if config.Nats.URL == "" {
		config.Nats.URL = defaults.Nats.URL
	}
	if config.Audit == nil {
		config.Audit = defaults.Audit
	} else if config.Audit.Path == "" {
		config.Audit.Path = defaults.Audit.Path
	}
	if config.Game == nil {
		config.Game = defaults.Game
	} else {
		if config.Game.MinBet == 0 {
			config.Game.MinBet = defaults.Game.MinBet
		}
		if config.Game.DefaultBuyin == 0 {
			config.Game.DefaultBuyin = defaults.Game.DefaultBuyin
		}
	}

	return &config, nil
}

// Validate checks the configuration for nonsense values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.MinBet <= 0 {
		return fmt.Errorf("min_bet must be positive, got %d", c.Game.MinBet)
	}
	if c.Game.MinBet%2 != 0 {
		return fmt.Errorf("min_bet must be even so the small blind is exact, got %d", c.Game.MinBet)
	}
	if c.Game.DefaultBuyin < c.Game.MinBet {
		return fmt.Errorf("default_buyin %d is less than min_bet %d", c.Game.DefaultBuyin, c.Game.MinBet)
	}
	return nil
}

// ListenAddress returns the host:port to bind.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
