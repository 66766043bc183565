// Package config loads the service configuration from a YAML or JSON file
// with FD_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rescuegrid/firedispatch/core/dispatch"
	"github.com/rescuegrid/firedispatch/core/metrics"
)

// Config is the root configuration of the dispatch service.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Store     StoreConfig     `json:"store"`
	Dispatch  dispatch.Config `json:"dispatch"`
	Metrics   metrics.Config  `json:"metrics"`
	Audit     AuditConfig     `json:"audit"`
	MQTT      MQTTConfig      `json:"mqtt"`
	Webhook   WebhookConfig   `json:"webhook"`
	Readiness WatchConfig     `json:"readiness_watch"`
	Auth      AuthConfig      `json:"auth"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr      string `json:"addr"`
	Websocket bool   `json:"websocket"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite" or "postgres".
	Backend     string `json:"backend"`
	SQLitePath  string `json:"sqlite_path"`
	PostgresDSN string `json:"postgres_dsn"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "firedispatch.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	return nil
}

// MQTTConfig holds the broker settings for machine subscribers.
type MQTTConfig struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("mqtt broker is required when enabled")
	}
	return nil
}

// WebhookConfig holds the external forwarding endpoint settings.
type WebhookConfig struct {
	Enabled      bool   `json:"enabled"`
	URL          string `json:"url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURL      string `json:"auth_url"`
}

// Validate checks mandatory fields.
func (c WebhookConfig) Validate() error {
	if c.Enabled && c.URL == "" {
		return fmt.Errorf("webhook url is required when enabled")
	}
	return nil
}

// WatchConfig configures the readiness staleness watcher.
type WatchConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron expression; the default runs every five minutes.
	Schedule string `json:"schedule"`
	// StaleAfterHours flags stations whose latest submission is older.
	StaleAfterHours int `json:"stale_after_hours"`
}

// SetDefaults applies sane defaults.
func (c *WatchConfig) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = "*/5 * * * *"
	}
	if c.StaleAfterHours == 0 {
		c.StaleAfterHours = 24
	}
}

// TokenConfig maps one static bearer token to an identity.
type TokenConfig struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// AuthConfig lists the accepted API tokens.
type AuthConfig struct {
	Tokens []TokenConfig `json:"tokens"`
}

// Load reads the configuration file, applies FD_ environment overrides
// (FD_SERVER__ADDR maps to server.addr) and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("FD_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.Readiness.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Webhook.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
