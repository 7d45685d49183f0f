package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from a YAML file with
// environment-variable fallbacks for the database settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	NATS     NATSConfig     `yaml:"nats"`
	Tourney  TourneyConfig  `yaml:"tourney"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

// DSN returns the Postgres connection URL.
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// NATSConfig holds message bus settings. Disabled means the server runs
// standalone with websocket-only fan-out.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// TourneyConfig identifies the active tournament and its draft shape.
type TourneyConfig struct {
	Name   string `yaml:"name"`
	Rounds int    `yaml:"rounds"`
}

// Load reads configuration from path, then applies env fallbacks and
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = getEnvAsInt("PORT", 3000)
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Postgres.Host == "" {
		c.Postgres.Host = getEnv("DB_HOST", "localhost")
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = getEnvAsInt("DB_PORT", 5432)
	}
	if c.Postgres.User == "" {
		c.Postgres.User = getEnv("DB_USER", "postgres")
	}
	if c.Postgres.Password == "" {
		c.Postgres.Password = getEnv("DB_PASSWORD", "postgres")
	}
	if c.Postgres.Database == "" {
		c.Postgres.Database = getEnv("DB_NAME", "golfdraft")
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 10
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = time.Hour
	}

	if c.NATS.URL == "" {
		c.NATS.URL = getEnv("NATS_URL", "nats://localhost:4222")
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "golfdraft.events"
	}

	if c.Tourney.Rounds == 0 {
		c.Tourney.Rounds = 4
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
