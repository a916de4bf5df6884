package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/opennem/opennem-sub002/internal/core/network"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig       `koanf:"server"`
	Database DatabaseConfig     `koanf:"database"`
	Fixtures FixturesConfig     `koanf:"fixtures"`
	Cache    CacheConfig        `koanf:"cache"`
	Exporter ExporterConfig     `koanf:"exporter"`
	Networks []*network.Network `koanf:"networks"`

	// Version is the build identifier stamped onto every exported series
	// set.
	Version string `koanf:"version"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type FixturesConfig struct {
	// Path is an optional directory of YAML files overriding the built-in
	// fuel-tech and unit tables.
	Path string `koanf:"path"`
}

type CacheConfig struct {
	// TTL is the range-cache entry lifetime.
	TTL      string `koanf:"ttl"`
	Capacity int    `koanf:"capacity"`
}

type ExporterConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Interval string `koanf:"interval"` // cron interval between export runs
	Target   string `koanf:"target"`   // filesystem | s3

	OutputDir string `koanf:"output_dir"`

	S3 S3Config `koanf:"s3"`
}

type S3Config struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	Secure    bool   `koanf:"secure"`
}

// CacheTTL returns the parsed cache TTL.
func (c CacheConfig) CacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.TTL)
}

// ExportInterval returns the parsed exporter run interval.
func (c ExporterConfig) ExportInterval() (time.Duration, error) {
	return time.ParseDuration(c.Interval)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	ttl, err := c.Cache.CacheTTL()
	if err != nil {
		return fmt.Errorf("invalid cache.ttl %q: %w", c.Cache.TTL, err)
	}
	if ttl <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be > 0")
	}

	if c.Exporter.Enabled {
		interval, err := c.Exporter.ExportInterval()
		if err != nil {
			return fmt.Errorf("invalid exporter.interval %q: %w", c.Exporter.Interval, err)
		}
		if interval <= 0 {
			return fmt.Errorf("exporter.interval must be > 0")
		}
		switch c.Exporter.Target {
		case "filesystem":
			if strings.TrimSpace(c.Exporter.OutputDir) == "" {
				return fmt.Errorf("exporter.output_dir is required for the filesystem target")
			}
		case "s3":
			if strings.TrimSpace(c.Exporter.S3.Endpoint) == "" {
				return fmt.Errorf("exporter.s3.endpoint is required for the s3 target")
			}
			if strings.TrimSpace(c.Exporter.S3.Bucket) == "" {
				return fmt.Errorf("exporter.s3.bucket is required for the s3 target")
			}
		default:
			return fmt.Errorf("unsupported exporter.target %q", c.Exporter.Target)
		}
	}

	if len(c.Networks) == 0 {
		return fmt.Errorf("at least one network must be configured")
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.max_body_size_mb": 4,
		"server.mode":             "release",
		"database.type":           "postgres",
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"fixtures.path":           "",
		"cache.ttl":               "15m",
		"cache.capacity":          100,
		"exporter.enabled":        false,
		"exporter.interval":       "5m",
		"exporter.target":         "filesystem",
		"exporter.output_dir":     "./exports",
		"exporter.s3.secure":      true,
		"version":                 "3.0",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("OPENNEM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "OPENNEM_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Networks) == 0 {
		cfg.Networks = DefaultNetworks()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultNetworks is the built-in network reference set, applied when the
// config file does not declare its own.
func DefaultNetworks() []*network.Network {
	return []*network.Network{
		{
			Code:            "NEM",
			Country:         "au",
			Timezone:        "Australia/Sydney",
			OffsetMinutes:   600,
			IntervalMinutes: 5,
		},
		{
			Code:            "WEM",
			Country:         "au",
			Timezone:        "Australia/Perth",
			OffsetMinutes:   480,
			IntervalMinutes: 30,
		},
	}
}
