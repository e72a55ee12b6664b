package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/habitrack/internal/catalog"
	"github.com/dukerupert/habitrack/internal/middleware"
)

// Config is the full runtime configuration. Values come from defaults, then
// an optional YAML file, then HABITRACK_* environment variables.
type Config struct {
	Server   ServerConfig     `yaml:"server"`
	Database DatabaseConfig   `yaml:"database"`
	Log      LogConfig        `yaml:"log"`
	Tracker  TrackerConfig    `yaml:"tracker"`
	Backup   BackupConfig     `yaml:"backup"`
	Catalog  *catalog.Catalog `yaml:"catalog,omitempty"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TrackerConfig struct {
	Timezone    string `yaml:"timezone"`
	StreakLimit int    `yaml:"streak_limit"`
}

type BackupConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Bucket        string        `yaml:"bucket"`
	Region        string        `yaml:"region"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	Passphrase    string        `yaml:"passphrase"`
	Prefix        string        `yaml:"prefix"`
	Interval      time.Duration `yaml:"interval"`
	RetentionDays int           `yaml:"retention_days"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "habitrack.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Tracker:  TrackerConfig{Timezone: "Local", StreakLimit: 3650},
		Backup: BackupConfig{
			Region:        "auto",
			Prefix:        "habitrack",
			Interval:      24 * time.Hour,
			RetentionDays: 30,
		},
	}
}

// Load reads path (skipped when empty) over the defaults and applies
// environment overrides from getenv. A nil getenv means os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
		return nil
	}

	str("HABITRACK_HOST", &cfg.Server.Host)
	if err := num("HABITRACK_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v := strings.TrimSpace(getenv("HABITRACK_ALLOWED_ORIGINS")); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(getenv("HABITRACK_TRUSTED_PROXIES")); v != "" {
		cfg.Server.TrustedProxies = splitList(v)
	}
	str("HABITRACK_DB_PATH", &cfg.Database.Path)
	str("HABITRACK_LOG_LEVEL", &cfg.Log.Level)
	str("HABITRACK_LOG_FORMAT", &cfg.Log.Format)
	str("HABITRACK_TIMEZONE", &cfg.Tracker.Timezone)
	if err := num("HABITRACK_STREAK_LIMIT", &cfg.Tracker.StreakLimit); err != nil {
		return err
	}

	str("HABITRACK_S3_ENDPOINT", &cfg.Backup.Endpoint)
	str("HABITRACK_S3_BUCKET", &cfg.Backup.Bucket)
	str("HABITRACK_S3_REGION", &cfg.Backup.Region)
	str("HABITRACK_S3_ACCESS_KEY", &cfg.Backup.AccessKey)
	str("HABITRACK_S3_SECRET_KEY", &cfg.Backup.SecretKey)
	str("HABITRACK_BACKUP_PASSPHRASE", &cfg.Backup.Passphrase)
	str("HABITRACK_BACKUP_PREFIX", &cfg.Backup.Prefix)
	if v := strings.TrimSpace(getenv("HABITRACK_BACKUP_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HABITRACK_BACKUP_INTERVAL: %w", err)
		}
		cfg.Backup.Interval = d
	}
	return num("HABITRACK_BACKUP_RETENTION_DAYS", &cfg.Backup.RetentionDays)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Proxies(); err != nil {
		errs = append(errs, err)
	}
	if c.Catalog != nil {
		if err := c.Catalog.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Location resolves Tracker.Timezone. "" and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Tracker.Timezone)
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("tracker.timezone: %w", err)
	}
	return loc, nil
}

// Proxies parses Server.TrustedProxies. Entries are IPs or CIDR ranges.
func (c Config) Proxies() ([]netip.Prefix, error) {
	prefixes, err := middleware.ParseProxies(c.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server.trusted_proxies: %w", err)
	}
	return prefixes, nil
}

// HabitCatalog returns the configured catalog or the built-in one.
func (c Config) HabitCatalog() catalog.Catalog {
	if c.Catalog != nil {
		return *c.Catalog
	}
	return catalog.Default()
}
