// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; HSDS credentials and database DSNs go to
// the OS keychain.
//
// Values are resolved with viper in this order: defaults, the JSON config file,
// FIREFLY_* environment variables (FIREFLY_CACHE_REDIS_ADDR for cache.redis_addr).
// Command flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firefly/cli/internal/browser"
	"firefly/cli/internal/xdg"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "FIREFLY"

// Config holds non-sensitive CLI settings.
type Config struct {
	Endpoint  string                  `mapstructure:"endpoint"`
	Bucket    string                  `mapstructure:"bucket"`
	Folder    string                  `mapstructure:"folder"`
	BatchSize int                     `mapstructure:"batch_size"`
	LogLevel  string                  `mapstructure:"log_level"`
	Timeout   time.Duration           `mapstructure:"timeout"`
	RateLimit float64                 `mapstructure:"rate_limit"`
	RateBurst int                     `mapstructure:"rate_burst"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Bridge    BridgeConfig            `mapstructure:"bridge"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
	Export    ExportConfig            `mapstructure:"export"`
	Attrs     []browser.AttributeSpec `mapstructure:"attributes"`
}

// CacheConfig enables the Redis attribute cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// BridgeConfig is where `firefly serve` listens and `firefly watch` connects.
type BridgeConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig enables the Prometheus endpoint of `firefly serve` when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ExportConfig configures `firefly export`.
type ExportConfig struct {
	Table string `mapstructure:"table"`
}

var defaults = map[string]any{
	"endpoint":         "https://hsdshdflab.hdfgroup.org",
	"bucket":           "firefly-hsds",
	"folder":           "/FIREfly/h5/",
	"batch_size":       browser.DefaultBatchSize,
	"log_level":        "info",
	"timeout":          "30s",
	"rate_limit":       0.0,
	"rate_burst":       1,
	"cache.redis_addr": "",
	"cache.ttl":        "10m",
	"bridge.addr":      "127.0.0.1:7407",
	"metrics.addr":     "",
	"export.table":     "firefly_domains",
}

// Keys lists the settable keys in display order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Default returns the built-in configuration.
func Default() Config {
	c, _ := decode(newViper())
	return c
}

// Load reads configuration from file (the XDG path when empty) and the
// environment; a missing file yields defaults.
func Load(file string) (Config, error) {
	if file == "" {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		file = p
	}

	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readFile(v, file); err != nil {
		return Config{}, err
	}
	return decode(v)
}

// LoadFile reads only defaults and the file, ignoring the environment. It is
// the starting point for edits that get saved back.
func LoadFile(file string) (Config, error) {
	v := newViper()
	if err := readFile(v, file); err != nil {
		return Config{}, err
	}
	return decode(v)
}

// Save writes configuration to file with 0600 permissions.
func Save(file string, c Config) error {
	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigPermissions(0o600)
	for k, val := range c.settings() {
		v.Set(k, val)
	}
	if len(c.Attrs) > 0 {
		v.Set("attributes", c.Attrs)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return err
	}
	if err := v.WriteConfigAs(file); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(file, 0o600)
}

// Validate rejects settings the model cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("endpoint must not be empty"))
	}
	if strings.TrimSpace(c.Bucket) == "" {
		errs = append(errs, errors.New("bucket must not be empty"))
	}
	if strings.TrimSpace(c.Folder) == "" {
		errs = append(errs, errors.New("folder must not be empty"))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit))
	}
	if len(c.Attrs) > 0 {
		if err := browser.Schema(c.Attrs).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("attributes: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Schema returns the configured attribute table, or the built-in one.
func (c Config) Schema() browser.Schema {
	if len(c.Attrs) == 0 {
		return browser.DefaultSchema()
	}
	return browser.Schema(c.Attrs)
}

// Get returns the display value of key.
func (c Config) Get(key string) (string, error) {
	v, ok := c.settings()[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return fmt.Sprint(v), nil
}

// Set parses value into key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch key {
	case "endpoint":
		c.Endpoint = value
	case "bucket":
		c.Bucket = value
	case "folder":
		c.Folder = value
	case "log_level":
		c.LogLevel = value
	case "batch_size":
		c.BatchSize, err = strconv.Atoi(value)
	case "rate_burst":
		c.RateBurst, err = strconv.Atoi(value)
	case "rate_limit":
		c.RateLimit, err = strconv.ParseFloat(value, 64)
	case "timeout":
		c.Timeout, err = time.ParseDuration(value)
	case "cache.redis_addr":
		c.Cache.RedisAddr = value
	case "cache.ttl":
		c.Cache.TTL, err = time.ParseDuration(value)
	case "bridge.addr":
		c.Bridge.Addr = value
	case "metrics.addr":
		c.Metrics.Addr = value
	case "export.table":
		c.Export.Table = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

func (c Config) settings() map[string]any {
	return map[string]any{
		"endpoint":         c.Endpoint,
		"bucket":           c.Bucket,
		"folder":           c.Folder,
		"batch_size":       c.BatchSize,
		"log_level":        c.LogLevel,
		"timeout":          c.Timeout.String(),
		"rate_limit":       c.RateLimit,
		"rate_burst":       c.RateBurst,
		"cache.redis_addr": c.Cache.RedisAddr,
		"cache.ttl":        c.Cache.TTL.String(),
		"bridge.addr":      c.Bridge.Addr,
		"metrics.addr":     c.Metrics.Addr,
		"export.table":     c.Export.Table,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

func readFile(v *viper.Viper, file string) error {
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", file, err)
	}
	return nil
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return c, nil
}
