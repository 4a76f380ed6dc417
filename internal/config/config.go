package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	// DriverRedis keeps tickets in Redis and the catalog in SQLite.
	DriverRedis = "redis"
)

// Transport modes.
const (
	ModeHTTP  = "http"
	ModeStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Tickets   TicketsConfig   `yaml:"tickets"`
	Limits    LimitsConfig    `yaml:"limits"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"WAITLINE_SERVER_HOST"`
	Port int    `yaml:"port" env:"WAITLINE_SERVER_PORT"`
}

type TransportConfig struct {
	// Mode is "http" for the JSON API plus MCP over HTTP, or "stdio" for MCP
	// on stdin/stdout.
	Mode string `yaml:"mode" env:"WAITLINE_TRANSPORT_MODE"`
}

type DBConfig struct {
	Driver      string `yaml:"driver" env:"WAITLINE_DB_DRIVER"`
	Path        string `yaml:"path" env:"WAITLINE_DB_PATH"`
	RedisAddr   string `yaml:"redis_addr" env:"WAITLINE_REDIS_ADDR"`
	RedisPrefix string `yaml:"redis_prefix" env:"WAITLINE_REDIS_PREFIX"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"WAITLINE_LOG_LEVEL"`
	// Path optionally mirrors logs to a size-capped file.
	Path     string `yaml:"path" env:"WAITLINE_LOG_PATH"`
	MaxBytes int64  `yaml:"max_bytes" env:"WAITLINE_LOG_MAX_BYTES"`
}

type TicketsConfig struct {
	ServeRequiresAdmitter bool `yaml:"serve_requires_admitter" env:"WAITLINE_SERVE_REQUIRES_ADMITTER"`
}

type LimitsConfig struct {
	// JoinRate is the sustained joins per second allowed per member. Zero
	// disables limiting.
	JoinRate  float64 `yaml:"join_rate" env:"WAITLINE_JOIN_RATE"`
	JoinBurst int     `yaml:"join_burst" env:"WAITLINE_JOIN_BURST"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: ModeHTTP,
		},
		DB: DBConfig{
			Driver:      DriverSQLite,
			Path:        "waitline.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "waitline:",
		},
		Log: LogConfig{
			Level:    "info",
			MaxBytes: 10 << 20,
		},
		Tickets: TicketsConfig{
			ServeRequiresAdmitter: true,
		},
		Limits: LimitsConfig{
			JoinRate:  5,
			JoinBurst: 10,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("WAITLINE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Transport.Mode = strings.ToLower(strings.TrimSpace(c.Transport.Mode))
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Transport.Mode {
	case ModeHTTP, ModeStdio:
	default:
		errs = append(errs, fmt.Errorf("transport.mode must be %q or %q, got %q", ModeHTTP, ModeStdio, c.Transport.Mode))
	}
	switch c.DB.Driver {
	case DriverSQLite, DriverMemory:
	case DriverRedis:
		if strings.TrimSpace(c.DB.RedisAddr) == "" {
			errs = append(errs, errors.New("db.redis_addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("db.driver must be sqlite, memory or redis, got %q", c.DB.Driver))
	}
	if c.DB.Driver != DriverMemory && strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level unknown: %q", c.Log.Level))
	}
	if c.Limits.JoinRate < 0 {
		errs = append(errs, errors.New("limits.join_rate must not be negative"))
	}
	if c.Limits.JoinRate > 0 && c.Limits.JoinBurst <= 0 {
		errs = append(errs, errors.New("limits.join_burst must be positive when join_rate is set"))
	}

	return errors.Join(errs...)
}
