package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig      `yaml:"server"`
	Log          LogConfig         `yaml:"log"`
	Database     DatabaseConfig    `yaml:"database"`
	Admin        AdminConfig       `yaml:"admin"`
	Rotation     RotationConfig    `yaml:"rotation"`
	RateLimit    RateLimitConfig   `yaml:"rate_limit"`
	SupportLines []SupportLineSpec `yaml:"support_lines"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowOrigins lists CORS origins for the admin UI. Empty allows any origin.
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type DatabaseConfig struct {
	Driver       string        `yaml:"driver"` // sqlite, mysql, postgres
	DSN          string        `yaml:"dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

// AdminConfig holds the admin PIN. PinHash (bcrypt) takes precedence over Pin.
type AdminConfig struct {
	Pin     string `yaml:"pin"`
	PinHash string `yaml:"pin_hash"`
}

type RotationConfig struct {
	SchedulerEnabled bool   `yaml:"scheduler_enabled"`
	Schedule         string `yaml:"schedule"` // cron spec, e.g. "@every 1m"
}

// RateLimitConfig applies per client IP to the PIN-guarded admin routes.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SupportLineSpec is one entry of the support-line catalog. An empty Phone
// marks the custom entry whose phone is chosen by the admin.
type SupportLineSpec struct {
	Name  string `yaml:"name"`
	Phone string `yaml:"phone"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			Mode:            "debug",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "settings.db",
			QueryTimeout: 5 * time.Second,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Rotation: RotationConfig{
			SchedulerEnabled: false,
			Schedule:         "@every 1m",
		},
		RateLimit: RateLimitConfig{
			RPS:   1,
			Burst: 5,
		},
		SupportLines: DefaultSupportLines(),
	}
}

// DefaultSupportLines is the catalog shipped with the admin panel.
func DefaultSupportLines() []SupportLineSpec {
	return []SupportLineSpec{
		{Name: "Linea 1", Phone: "541176067205"},
		{Name: "Linea 2", Phone: "541127214473"},
		{Name: "Linea 3", Phone: "541166848706"},
		{Name: "Otro / Personalizado", Phone: ""},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if timeout := os.Getenv("DB_QUERY_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Database.QueryTimeout = d
		}
	}
	if pin := os.Getenv("ADMIN_PIN"); pin != "" {
		c.Admin.Pin = pin
	}
	if hash := os.Getenv("ADMIN_PIN_HASH"); hash != "" {
		c.Admin.PinHash = hash
	}
	if enabled := os.Getenv("ROTATION_SCHEDULER_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			c.Rotation.SchedulerEnabled = v
		}
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if len(c.SupportLines) == 0 {
		return errors.New("support_lines must contain at least one entry")
	}
	for i, line := range c.SupportLines {
		if strings.TrimSpace(line.Name) == "" {
			return fmt.Errorf("support_lines[%d]: name is required", i)
		}
	}
	if c.Database.QueryTimeout <= 0 {
		return errors.New("database.query_timeout must be positive")
	}
	if c.Rotation.SchedulerEnabled && strings.TrimSpace(c.Rotation.Schedule) == "" {
		return errors.New("rotation.schedule is required when the scheduler is enabled")
	}
	return nil
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
