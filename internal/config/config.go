package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Presence PresenceConfig `yaml:"presence"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RedisConfig struct {
	// Addr selects the shared Redis store. Empty means the in-process
	// memory store: counts are then correct for a single instance only.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PresenceConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	Cadence      time.Duration `yaml:"cadence"`
	StoreTimeout time.Duration `yaml:"store_timeout"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Presence: PresenceConfig{
			TTL:          90 * time.Second,
			Cadence:      2 * time.Second,
			StoreTimeout: 2 * time.Second,
		},
	}
}

// Load reads the yaml config at path, layering it over the defaults.
// A missing file is not an error: the defaults apply as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Presence.TTL <= 0 {
		return fmt.Errorf("presence.ttl must be positive, got %s", c.Presence.TTL)
	}
	if c.Presence.Cadence <= 0 {
		return fmt.Errorf("presence.cadence must be positive, got %s", c.Presence.Cadence)
	}
	if c.Presence.StoreTimeout <= 0 {
		return fmt.Errorf("presence.store_timeout must be positive, got %s", c.Presence.StoreTimeout)
	}
	return nil
}
